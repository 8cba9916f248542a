package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/llir/llvm/asm"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/codegen"
	"github.com/pontaoski/kaleido/config"
	"github.com/pontaoski/kaleido/driver"
	"github.com/pontaoski/kaleido/interp"
	"github.com/pontaoski/kaleido/printer"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openSources concatenates the named files, or stdin when there are none.
func openSources(names []string) (io.Reader, func(), error) {
	if len(names) == 0 {
		return os.Stdin, func() {}, nil
	}

	var readers []io.Reader
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, name := range names {
		f, err := os.Open(name)
		if err != nil {
			closeAll()
			return nil, nil, tracerr.Wrap(err)
		}
		files = append(files, f)
		// keep the last token of one file from running into the next
		readers = append(readers, f, strings.NewReader("\n"))
	}
	return io.MultiReader(readers...), closeAll, nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if c.Bool("no-opt") {
		cfg.Optimize = false
	}
	if c.Bool("prelude") {
		cfg.Prelude = true
	}
	return cfg, nil
}

// pipeline assembles the generator, interpreter and driver options the
// configuration asks for.
func pipeline(cfg config.Config, out io.Writer) ([]driver.Option, error) {
	pm, err := cfg.PassManager()
	if err != nil {
		return nil, err
	}

	genOpts := []codegen.Option{codegen.WithModuleName(cfg.Module), codegen.WithPasses(pm)}
	if cfg.Prelude {
		genOpts = append(genOpts, codegen.WithBuiltins())
	}

	opts := []driver.Option{
		driver.WithGenerator(codegen.New(genOpts...)),
		driver.WithMachine(interp.New(interp.WithOutput(out), interp.WithMaxSteps(cfg.MaxSteps))),
		driver.WithColor(isTerminal(os.Stderr)),
	}
	if !cfg.Evaluate {
		opts = append(opts, driver.WithoutEvaluation())
	}
	if !cfg.PrintIR {
		opts = append(opts, driver.WithoutIR())
	}
	return opts, nil
}

// compile runs the driver over the command's sources.
func compile(c *cli.Context, cfg config.Config, extra ...driver.Option) (*driver.Driver, error) {
	src, done, err := openSources(c.Args().Slice())
	if err != nil {
		return nil, err
	}
	defer done()

	opts, err := pipeline(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	d := driver.New(src, os.Stdout, os.Stderr, append(opts, extra...)...)
	if err := d.Run(); err != nil {
		return nil, err
	}
	return d, nil
}

func failOnErrors(d *driver.Driver) error {
	if n := d.Errors(); n > 0 {
		return fmt.Errorf("%d error(s)", n)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "kaleido",
		Usage: "kaleidoscope compiler",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print errors with their stack trace",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: config.FileName,
				Usage: "project file",
			},
			&cli.BoolFlag{
				Name:  "no-opt",
				Usage: "skip the optimization passes",
			},
			&cli.BoolFlag{
				Name:  "prelude",
				Usage: "declare the runtime functions without externs",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if c.Bool("debug") {
				tracerr.PrintSourceColor(err)
				os.Exit(1)
			}
			log.Fatalf("error with kaleido: %v", err)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "init a directory",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return tracerr.New("no module name provided")
					}
					cfg := config.Default()
					cfg.Module = name
					if err := config.Write(c.String("config"), cfg); err != nil {
						return tracerr.Errorf("error creating %s: %v", c.String("config"), err)
					}
					return nil
				},
			},
			{
				Name:  "repl",
				Usage: "read, evaluate and print interactively",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					opts, err := pipeline(cfg, os.Stdout)
					if err != nil {
						return err
					}

					if !isTerminal(os.Stdin) {
						opts = append(opts, driver.WithPrompt(func() {
							fmt.Fprint(os.Stderr, cfg.Prompt)
						}))
						return driver.New(os.Stdin, os.Stdout, os.Stderr, opts...).Run()
					}

					r := newLineReader(cfg.Prompt, historyFile())
					defer r.Close()
					return driver.New(r, os.Stdout, os.Stderr, opts...).Run()
				},
			},
			{
				Name:      "run",
				Usage:     "compile and evaluate files",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "print how often each pass changed something",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					d, err := compile(c, cfg)
					if err != nil {
						return err
					}
					if c.Bool("stats") {
						if pm := d.Generator().Passes(); pm != nil {
							renderStats(os.Stdout, pm.Stats())
						}
					}
					return failOnErrors(d)
				},
			},
			{
				Name:      "build",
				Usage:     "compile files into an LLVM module",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "output",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Value: false,
					},
					&cli.BoolFlag{
						Name:  "object",
						Usage: "also assemble the module with clang",
						Value: false,
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Evaluate = false
					cfg.PrintIR = false

					d, err := compile(c, cfg, driver.KeepTopLevel())
					if err != nil {
						return err
					}
					if err := failOnErrors(d); err != nil {
						return err
					}

					module := d.Generator().Module().String()
					if c.Bool("dump") {
						fmt.Println(module)
						return nil
					}

					out := c.String("output")
					if out == "" {
						out = cfg.Module + ".ll"
					}
					if err := ioutil.WriteFile(out, []byte(module), 0644); err != nil {
						return tracerr.Wrap(err)
					}
					if !c.Bool("object") {
						return nil
					}

					obj := strings.TrimSuffix(out, filepath.Ext(out)) + ".o"
					cmd := exec.Command("clang", "-c", "-o", obj, out)
					cmd.Stdout = os.Stdout
					cmd.Stderr = os.Stderr
					return tracerr.Wrap(cmd.Run())
				},
			},
			{
				Name:      "ast",
				Usage:     "print the syntax tree of files",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "repr",
						Usage: "dump the Go values instead of an outline",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}

					var perr error
					show := func(n ast.Node) {
						if c.Bool("repr") {
							repr.Println(n, repr.Indent("  "))
							return
						}
						if err := printer.Fprint(os.Stdout, n); err != nil && perr == nil {
							perr = tracerr.Wrap(err)
						}
					}

					d, err := compile(c, cfg, driver.ParseOnly(), driver.WithParsed(show))
					if err != nil {
						return err
					}
					if perr != nil {
						return perr
					}
					return failOnErrors(d)
				},
			},
			{
				Name:      "funcs",
				Usage:     "list the functions of source files or of a built .ll module",
				ArgsUsage: "[FILE...]",
				Action: func(c *cli.Context) error {
					if args := c.Args().Slice(); len(args) == 1 && filepath.Ext(args[0]) == ".ll" {
						m, err := asm.ParseFile(args[0])
						if err != nil {
							return tracerr.Wrap(err)
						}
						renderFunctions(os.Stdout, m.Funcs)
						return nil
					}

					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Evaluate = false
					cfg.PrintIR = false

					d, err := compile(c, cfg)
					if err != nil {
						return err
					}
					renderFunctions(os.Stdout, d.Generator().Functions())
					return failOnErrors(d)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
