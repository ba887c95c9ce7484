// Package core implements the interactive command interpreter: a loop that
// prompts, reads one line, expands it into words and either runs a builtin
// or launches the words as a child process.
package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"tinysh/core/config"
	"tinysh/core/env"
	"tinysh/core/logger"
	"tinysh/core/wordexp"
)

// Shell ties the interpreter's collaborators together and owns their
// lifetimes: the readline instance and the expander are created once in
// NewShell and released once in Close.
type Shell struct {
	Config   *config.Configuration
	Env      env.Store
	Expander *wordexp.Expander
	Launcher *Launcher
	Readline *readline.Instance
	Prompt   *PromptRenderer
	Log      *logger.SessionLogger

	// Chdir replaces os.Chdir in tests.
	Chdir func(dir string) error

	stdout io.Writer
	stderr io.Writer
	tag    string

	closeOnce sync.Once
	closeErr  error
}

// NewShell creates a Shell reading lines from stdin and writing command
// output to stdout and diagnostics to stderr. The store becomes the
// environment of every launched child.
func NewShell(cfg *config.Configuration, store env.Store, stdin io.Reader, stdout, stderr io.Writer, log *logger.SessionLogger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: PromptMarker,
		Stdin:  readline.NewCancelableStdin(stdin),
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		return nil, err
	}

	tag := color.New(color.FgRed)
	switch cfg.Color {
	case config.ColorAlways:
		tag.EnableColor()
	case config.ColorNever:
		tag.DisableColor()
	}

	s := &Shell{
		Config:   cfg,
		Env:      store,
		Expander: wordexp.New(store),
		Readline: rl,
		Log:      log,
		stdout:   stdout,
		stderr:   stderr,
		tag:      tag.Sprint("tinysh:"),
	}
	s.Prompt = &PromptRenderer{
		MaxPathLen: cfg.PromptMaxPathLen,
		Getwd:      os.Getwd,
		Diag:       s.errorf,
	}
	s.Launcher = &Launcher{
		Env:    store,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Diag:   s.errorf,
		Log:    log,
	}
	return s, nil
}

// Run is the interpreter loop. It returns nil when input ends or the exit
// builtin runs, and an error only for the fatal conditions: a read failure
// that isn't end-of-input, an unclassified expansion failure, or an
// impossible child wait status. Recoverable errors are reported to stderr
// and the loop continues.
func (s *Shell) Run() error {
	for {
		fmt.Fprintln(s.stdout, s.Prompt.Header())

		line, err := s.Readline.Readline()
		switch {
		case errors.Is(err, io.EOF):
			// Keep the next shell's prompt off our last line.
			fmt.Fprintln(s.stdout)
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case err != nil:
			return fmt.Errorf("failed to read next line: %w", err)
		}

		words, err := s.Expander.Expand(line)
		if err != nil {
			if !s.reportExpandErr(err) {
				return fmt.Errorf("unexpected word expansion failure: %w", err)
			}
			continue
		}
		if len(words) == 0 {
			continue
		}

		if words[0] == "exit" {
			s.Log.Record(&logger.CommandEvent{Argv: words, Builtin: true})
			return nil
		}
		if builtin, ok := builtins[words[0]]; ok {
			s.Log.Record(&logger.CommandEvent{Argv: words, Builtin: true})
			builtin(s, words[1:])
			continue
		}

		s.Log.Record(&logger.CommandEvent{Argv: words})
		if err := s.Launcher.Launch(words); err != nil {
			return err
		}
	}
}

// reportExpandErr prints the diagnostic for a classified expansion failure
// and reports whether the failure was one of the recognized classes.
func (s *Shell) reportExpandErr(err error) bool {
	switch {
	case errors.Is(err, wordexp.ErrBadChar):
		s.errorf("Illegal occurrence of newline or one of |, &, ;, <, >, (, ), {, }.")
	case errors.Is(err, wordexp.ErrUndefVar):
		s.errorf("Undefined shell variable was referenced")
	case errors.Is(err, wordexp.ErrCmdSubst):
		s.errorf("Command line substitution is prohibited")
	case errors.Is(err, wordexp.ErrNoSpace):
		s.errorf("Out of memory")
	case errors.Is(err, wordexp.ErrSyntax):
		s.errorf("Syntax error: unbalanced parentheses, unmatched quotes etc")
	default:
		return false
	}
	return true
}

// errorf reports a recoverable error on stderr and in the session log.
func (s *Shell) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.stderr, "%s %s\n", s.tag, msg)
	s.Log.Record(&logger.DiagnosticEvent{Message: msg})
}

// Close releases the line reader and the expander. Safe to call more than
// once; the resources are released exactly once.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Readline.Close()
		if err := s.Expander.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}
