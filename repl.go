package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
)

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kaleido_history")
}

// lineReader feeds the lexer one edited line at a time, prompting only when
// the lexer asks for more input.
type lineReader struct {
	state   *liner.State
	prompt  string
	history string
	buf     []byte
}

func newLineReader(prompt, history string) *lineReader {
	r := &lineReader{
		state:   liner.NewLiner(),
		prompt:  prompt,
		history: history,
	}
	r.state.SetCtrlCAborts(true)
	if f, err := os.Open(history); err == nil {
		r.state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		line, err := r.state.Prompt(r.prompt)
		if err == liner.ErrPromptAborted {
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
		if line != "" {
			r.state.AppendHistory(line)
		}
		r.buf = append([]byte(line), '\n')
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *lineReader) Close() error {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}
