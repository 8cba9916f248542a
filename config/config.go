// Package config reads and writes kaleido.yaml, the per-directory project
// file created by `kaleido init`.
package config

import (
	"io/ioutil"
	"os"

	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	"github.com/pontaoski/kaleido/interp"
	"github.com/pontaoski/kaleido/passes"
)

const FileName = "kaleido.yaml"

type Config struct {
	Module string `yaml:"module"`
	// Optimize runs the pass sequence after every function.
	Optimize bool `yaml:"optimize"`
	// Passes overrides the default pass sequence when not empty.
	Passes []string `yaml:"passes,omitempty"`
	// Prelude declares the runtime functions without externs.
	Prelude bool `yaml:"prelude"`
	// Evaluate runs top-level expressions with the interpreter.
	Evaluate bool   `yaml:"evaluate"`
	PrintIR  bool   `yaml:"printIR"`
	MaxSteps int    `yaml:"maxSteps"`
	Prompt   string `yaml:"prompt"`
}

func Default() Config {
	return Config{
		Module:   "main",
		Optimize: true,
		Evaluate: true,
		PrintIR:  true,
		MaxSteps: interp.DefaultMaxSteps,
		Prompt:   "ready> ",
	}
}

// Parse reads a configuration; fields it does not set keep their defaults.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, tracerr.Wrap(err)
	}
	if _, err := c.PassManager(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, tracerr.Wrap(err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, tracerr.Errorf("error reading %s: %v", path, err)
	}
	return c, nil
}

func Write(path string, c Config) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return tracerr.Wrap(err)
	}
	return tracerr.Wrap(ioutil.WriteFile(path, out, 0644))
}

// PassManager builds the pass sequence c asks for, or nil when optimization
// is off.
func (c Config) PassManager() (*passes.Manager, error) {
	if !c.Optimize {
		return nil, nil
	}
	if len(c.Passes) == 0 {
		return passes.Default(), nil
	}
	m, err := passes.ByName(c.Passes...)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return m, nil
}
