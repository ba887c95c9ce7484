package core

// PromptMarker is the second prompt line; input is typed after it.
const PromptMarker = "└─> "

// Placeholder labels shown when the real working directory can't be.
const (
	labelPathTooLong = "!Path too long to be shown!"
	labelCwdFailed   = "!Failed to get CWD!"
)

// PromptRenderer formats the directory line of the two-line prompt. The
// label it produces is bounded: the true working directory path can be
// arbitrarily long, the prompt never is.
type PromptRenderer struct {
	// MaxPathLen bounds the label, counting the terminator byte as
	// getcwd(3) does: a path of MaxPathLen-1 bytes still fits.
	MaxPathLen int
	// Getwd queries the current working directory, normally os.Getwd.
	Getwd func() (string, error)
	// Diag reports a non-fatal working-directory query failure.
	Diag func(format string, args ...interface{})
}

// Header renders the directory line. It never fails; a query failure is
// reported through Diag and replaced with a placeholder.
func (p *PromptRenderer) Header() string {
	cwd, err := p.Getwd()
	switch {
	case err != nil:
		p.Diag("Couldn't get cwd: %v", err)
		cwd = labelCwdFailed
	case len(cwd) >= p.MaxPathLen:
		cwd = labelPathTooLong
	}
	return "┌[" + cwd + "]"
}
