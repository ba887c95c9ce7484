package core

import (
	"bytes"
	"encoding/json"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysh/core/config"
	"tinysh/core/env"
	"tinysh/core/logger"
)

type sessionFixture struct {
	shell  *Shell
	store  *env.MapEnv
	out    bytes.Buffer
	errOut bytes.Buffer
	log    bytes.Buffer
	chdirs []string
}

// runSession feeds script to a fresh shell and runs the loop to
// completion.
func runSession(t *testing.T, script string) *sessionFixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX sh")
	}

	f := &sessionFixture{store: env.NewMapEnv()}
	require.NoError(t, f.store.Setenv("PATH", "/usr/bin:/bin"))
	require.NoError(t, f.store.Setenv("HOME", "/home/tester"))

	cfg := config.Default()
	cfg.Color = config.ColorNever

	session := logger.NewJsonLinesLogRecorder(&f.log).NewSession()
	sh, err := NewShell(cfg, f.store, strings.NewReader(script), &f.out, &f.errOut, session)
	require.NoError(t, err)
	sh.Chdir = func(dir string) error {
		f.chdirs = append(f.chdirs, dir)
		return nil
	}
	f.shell = sh

	require.NoError(t, sh.Run())
	require.NoError(t, sh.Close())
	return f
}

func TestRunExportExit(t *testing.T) {
	f := runSession(t, "export FOO=bar\nexit\n")

	assert.Equal(t, "bar", f.store.Getenv("FOO"))
	assert.Empty(t, f.errOut.String())
}

func TestRunExitIgnoresArguments(t *testing.T) {
	f := runSession(t, "exit now really\nexport NEVER=reached\n")

	_, ok := f.store.LookupEnv("NEVER")
	assert.False(t, ok)
}

func TestRunEndOfInput(t *testing.T) {
	f := runSession(t, "export FOO=bar\n")

	// EOF ends the session cleanly and leaves the cursor on a new line.
	assert.Equal(t, "bar", f.store.Getenv("FOO"))
	assert.True(t, strings.HasSuffix(f.out.String(), "\n"))
}

func TestRunBlankLinesDispatchNothing(t *testing.T) {
	f := runSession(t, "\n   \n\t\nexit\n")

	assert.Empty(t, f.errOut.String())
	assert.NotContains(t, f.out.String(), "Process exited")
}

func TestRunChildExitCodeIsReported(t *testing.T) {
	f := runSession(t, "sh -c 'exit 3'\nexit\n")

	assert.Contains(t, f.out.String(), "Process exited with error code 3\n")
}

func TestRunChildSeesExportedVariable(t *testing.T) {
	f := runSession(t, "export PROBE=visible\nsh -c 'echo probe=$PROBE'\nexit\n")

	assert.Contains(t, f.out.String(), "probe=visible\n")
}

func TestRunExpansionSubstitutesVariables(t *testing.T) {
	f := runSession(t, "export GREETING=hello\nsh -c \"echo $GREETING\"\nexit\n")

	assert.Contains(t, f.out.String(), "hello\n")
}

func TestRunPipeIsRejected(t *testing.T) {
	f := runSession(t, "a | b\nexit\n")

	assert.Contains(t, f.errOut.String(),
		"Illegal occurrence of newline or one of |, &, ;, <, >, (, ), {, }.")
	assert.NotContains(t, f.out.String(), "Process exited")
}

func TestRunUndefinedVariableIsRejected(t *testing.T) {
	f := runSession(t, "echo $TINYSH_UNDEFINED_XYZ\nexit\n")

	assert.Contains(t, f.errOut.String(), "Undefined shell variable was referenced")
}

func TestRunCommandSubstitutionIsRejected(t *testing.T) {
	f := runSession(t, "echo $(date)\nexit\n")

	assert.Contains(t, f.errOut.String(), "Command line substitution is prohibited")
}

func TestRunSyntaxErrorIsRejected(t *testing.T) {
	f := runSession(t, "echo 'oops\nexit\n")

	assert.Contains(t, f.errOut.String(),
		"Syntax error: unbalanced parentheses, unmatched quotes etc")
}

func TestRunArithmeticErrorDoesNotEndTheSession(t *testing.T) {
	f := runSession(t, "echo $((1/0))\nexport AFTER=alive\nexit\n")

	assert.Contains(t, f.errOut.String(),
		"Syntax error: unbalanced parentheses, unmatched quotes etc")
	assert.Equal(t, "alive", f.store.Getenv("AFTER"))
}

func TestRunDiagnosticsDontEndTheSession(t *testing.T) {
	f := runSession(t, "a | b\ncd /x /y\nexport AFTER=diags\nexit\n")

	assert.Equal(t, "diags", f.store.Getenv("AFTER"))
}

func TestRunCd(t *testing.T) {
	f := runSession(t, "cd /somewhere\ncd\nexit\n")

	assert.Equal(t, []string{"/somewhere", "/home/tester"}, f.chdirs)
}

func TestRunUnset(t *testing.T) {
	f := runSession(t, "export FOO=bar\nunset FOO\nunset FOO\nexit\n")

	_, ok := f.store.LookupEnv("FOO")
	assert.False(t, ok)
	assert.Empty(t, f.errOut.String())
}

func TestRunSessionLog(t *testing.T) {
	f := runSession(t, "export FOO=bar\nsh -c 'exit 5'\ncd /x /y\nexit\n")

	var kinds []string
	dec := json.NewDecoder(&f.log)
	for {
		var le logger.LogEntry
		if err := dec.Decode(&le); err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		switch {
		case le.Command != nil:
			kinds = append(kinds, "command")
		case le.ChildResult != nil:
			kinds = append(kinds, "child_result")
			assert.Equal(t, 5, le.ChildResult.ExitCode)
		case le.Diagnostic != nil:
			kinds = append(kinds, "diagnostic")
			assert.Equal(t, "Too many arguments", le.Diagnostic.Message)
		}
	}

	assert.Equal(t,
		[]string{"command", "command", "child_result", "command", "diagnostic", "command"},
		kinds)
}
