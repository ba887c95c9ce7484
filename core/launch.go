package core

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"tinysh/core/env"
	"tinysh/core/logger"
)

// errWaitStatus reports a wait outcome that is neither an exit nor a
// signal. The OS guarantees one of the two for a terminated child; seeing
// anything else means an invariant the interpreter relies on was broken.
var errWaitStatus = errors.New("child terminated with neither an exit code nor a signal")

// ChildProcessResult is the classified outcome of a completed child
// process.
type ChildProcessResult struct {
	// Signaled selects between the two variants.
	Signaled bool
	// Code is the exit code when the child exited normally.
	Code int
	// Signal identifies the terminating signal when Signaled.
	Signal unix.Signal
}

func (r *ChildProcessResult) String() string {
	if r.Signaled {
		return fmt.Sprintf("Process was terminated by signal %d: %s",
			int(r.Signal), unix.SignalName(r.Signal))
	}
	return fmt.Sprintf("Process exited with error code %d", r.Code)
}

// Launcher runs external programs as child processes, synchronously. Each
// launch spawns one child with the full current environment and the
// interpreter's standard streams, blocks until that exact child
// terminates, and reports how it ended.
type Launcher struct {
	Env    env.Store
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Diag reports recoverable launch failures.
	Diag func(format string, args ...interface{})
	// Log records launch outcomes; may be nil.
	Log *logger.SessionLogger
}

// Launch spawns argv as a child process and waits for it. argv[0] is both
// the program to search for and the child's first argument. Spawn and wait
// failures are recoverable and reported through Diag; a non-nil error is a
// fatal invariant violation.
func (l *Launcher) Launch(argv []string) error {
	path, err := LookPath(l.Env, argv[0])
	if err != nil {
		l.Diag("Failed to exec %s: %v", argv[0], err)
		return nil
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Env:    l.Env.Environ(),
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	}

	// The program is resolved before the child ever runs, so an
	// unrunnable image surfaces here instead of in a half-started child;
	// the child can never fall back into this loop.
	if err := cmd.Start(); err != nil {
		l.Diag("Failed to exec %s: %v", argv[0], err)
		return nil
	}

	err = cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		l.report(argv[0], &ChildProcessResult{Code: 0})
	case errors.As(err, &exitErr):
		res, cerr := classifyWaitStatus(exitErr)
		if cerr != nil {
			return cerr
		}
		l.report(argv[0], res)
	default:
		l.Diag("Failed to wait for child %d: %v", cmd.Process.Pid, err)
	}
	return nil
}

// classifyWaitStatus maps a child's wait status onto the two valid
// outcomes.
func classifyWaitStatus(exitErr *exec.ExitError) (*ChildProcessResult, error) {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return nil, errWaitStatus
	}
	switch {
	case status.Exited():
		return &ChildProcessResult{Code: status.ExitStatus()}, nil
	case status.Signaled():
		return &ChildProcessResult{Signaled: true, Signal: unix.Signal(status.Signal())}, nil
	default:
		return nil, errWaitStatus
	}
}

func (l *Launcher) report(argv0 string, res *ChildProcessResult) {
	fmt.Fprintln(l.Stdout, res.String())
	l.Log.Record(&logger.ChildResultEvent{
		Program:  argv0,
		ExitCode: res.Code,
		Signal:   signalName(res),
	})
}

func signalName(res *ChildProcessResult) string {
	if !res.Signaled {
		return ""
	}
	return unix.SignalName(res.Signal)
}
