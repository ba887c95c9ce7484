package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestPromptHeader(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	cases := map[string]struct {
		cwd      string
		err      error
		wantDiag bool
	}{
		"cwd_fits":      {cwd: "/home/tester/src"},
		"too_long":      {cwd: "/" + strings.Repeat("d", 300)},
		"lookup_failed": {err: errors.New("permission denied"), wantDiag: true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			var diags []string
			p := &PromptRenderer{
				MaxPathLen: 256,
				Getwd:      func() (string, error) { return tc.cwd, tc.err },
				Diag: func(format string, args ...interface{}) {
					diags = append(diags, fmt.Sprintf(format, args...))
				},
			}

			g.Assert(t, tn, []byte(p.Header()))

			if tc.wantDiag {
				assert.Len(t, diags, 1)
				assert.Contains(t, diags[0], "Couldn't get cwd")
			} else {
				assert.Empty(t, diags)
			}
		})
	}
}

func TestPromptHeaderBoundary(t *testing.T) {
	p := &PromptRenderer{
		MaxPathLen: 32,
		Diag:       func(format string, args ...interface{}) {},
	}

	// One byte below the cap fits, getcwd counts the terminator.
	fits := "/" + strings.Repeat("a", 30)
	p.Getwd = func() (string, error) { return fits, nil }
	assert.Equal(t, "┌["+fits+"]", p.Header())

	over := "/" + strings.Repeat("a", 31)
	p.Getwd = func() (string, error) { return over, nil }
	assert.Equal(t, "┌[!Path too long to be shown!]", p.Header())
}
