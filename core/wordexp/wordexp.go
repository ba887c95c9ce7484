// Package wordexp turns one raw input line into a sequence of argument
// words, applying quote removal, tilde expansion, variable substitution and
// pathname globbing. Lines using shell features beyond that (pipelines,
// redirection, command substitution, control flow) are rejected with a
// classified error.
package wordexp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"tinysh/core/env"
)

// Classified expansion failures. Each maps to a distinct user-visible
// diagnostic; any other failure is an internal error.
var (
	// ErrBadChar reports an embedded newline or a metacharacter the
	// interpreter does not support: |, &, ;, <, >, (, ), {, }.
	ErrBadChar = errors.New("illegal metacharacter or newline")
	// ErrUndefVar reports a reference to an undefined variable.
	ErrUndefVar = errors.New("undefined shell variable referenced")
	// ErrCmdSubst reports an attempted command substitution.
	ErrCmdSubst = errors.New("command substitution prohibited")
	// ErrNoSpace reports an expansion result over the resource cap.
	ErrNoSpace = errors.New("expansion result too large")
	// ErrSyntax reports unbalanced quoting or grouping.
	ErrSyntax = errors.New("syntax error")
)

// Expansion output caps. Go cannot observe allocation failure, so
// oversized results are bounded explicitly. The check runs after expansion
// has materialized the full result, so the caps bound what reaches
// dispatch, not peak allocation.
const (
	maxWords = 1 << 16
	maxBytes = 1 << 22
)

// Expander expands input lines into word vectors. It retains its parser and
// expansion configuration across calls for reuse; create one before the
// read loop starts and Close it once the loop ends. An Expander is not safe
// for concurrent use.
type Expander struct {
	parser *syntax.Parser
	cfg    *expand.Config
}

// New creates an Expander whose variable substitutions and tilde expansion
// read from store.
func New(store env.Store) *Expander {
	return &Expander{
		parser: syntax.NewParser(syntax.Variant(syntax.LangBash)),
		cfg: &expand.Config{
			Env:     environ{store},
			NoUnset: true,
			CmdSubst: func(io.Writer, *syntax.CmdSubst) error {
				return ErrCmdSubst
			},
			ReadDir2: func(path string) ([]fs.DirEntry, error) {
				return os.ReadDir(path)
			},
		},
	}
}

// Close releases the expander's reusable state. The Expander must not be
// used afterwards.
func (e *Expander) Close() error {
	e.parser = nil
	e.cfg = nil
	return nil
}

// Expand splits line into words. An empty result with a nil error is valid
// and means the line held nothing to dispatch.
func (e *Expander) Expand(line string) ([]string, error) {
	file, err := e.parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	words, err := e.lineWords(file)
	if err != nil {
		return nil, err
	}

	if len(words) > maxWords {
		return nil, ErrNoSpace
	}
	var total int
	for _, w := range words {
		if total += len(w); total > maxBytes {
			return nil, ErrNoSpace
		}
	}

	return words, nil
}

// lineWords extracts and expands the one simple command of a parsed line.
// Constructs needing unsupported metacharacters are rejected with
// ErrBadChar or ErrCmdSubst.
func (e *Expander) lineWords(file *syntax.File) ([]string, error) {
	if len(file.Stmts) == 0 {
		return nil, nil
	}
	// More than one statement means a ; & or newline separator was used.
	if len(file.Stmts) > 1 {
		return nil, ErrBadChar
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, ErrBadChar
	}
	if err := checkWords(stmt); err != nil {
		return nil, err
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		// An assignment prefix is not special here; FOO=$BAR stays one
		// literal word, exactly as wordexp(3) treats it.
		var words []string
		for _, as := range cmd.Assigns {
			word, err := e.assignWord(as)
			if err != nil {
				return nil, err
			}
			words = append(words, word)
		}
		fields, err := expand.Fields(e.cfg, cmd.Args...)
		if err != nil {
			return nil, classify(err)
		}
		return append(words, fields...), nil

	case *syntax.DeclClause:
		// The bash grammar claims "export" as a declaration keyword; undo
		// that and yield plain words so the dispatcher sees them.
		words := []string{cmd.Variant.Value}
		for _, as := range cmd.Args {
			switch {
			case as.Naked && as.Value != nil:
				fields, err := expand.Fields(e.cfg, as.Value)
				if err != nil {
					return nil, classify(err)
				}
				words = append(words, fields...)
			case as.Naked && as.Name != nil:
				words = append(words, as.Name.Value)
			default:
				word, err := e.assignWord(as)
				if err != nil {
					return nil, err
				}
				words = append(words, word)
			}
		}
		return words, nil

	default:
		// Pipelines, and/or lists, subshells, blocks and control flow
		// all need one of the banned metacharacters or keywords.
		return nil, ErrBadChar
	}
}

// assignWord renders a NAME=value assignment back into a single word with
// the value expanded but not field-split.
func (e *Expander) assignWord(as *syntax.Assign) (string, error) {
	word := as.Name.Value + "="
	if as.Value != nil {
		val, err := expand.Literal(e.cfg, as.Value)
		if err != nil {
			return "", classify(err)
		}
		word += val
	}
	return word, nil
}

// checkWords rejects command and process substitution anywhere in the
// statement, plus unquoted braces, which the parser leaves as literal text
// but wordexp(3) treats as metacharacters.
func checkWords(stmt *syntax.Stmt) error {
	var werr error
	syntax.Walk(stmt, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.CmdSubst:
			werr = ErrCmdSubst
			return false
		case *syntax.ProcSubst:
			werr = ErrBadChar
			return false
		case *syntax.Word:
			for _, part := range n.Parts {
				if lit, ok := part.(*syntax.Lit); ok &&
					strings.ContainsAny(lit.Value, "{}") {
					werr = ErrBadChar
					return false
				}
			}
		}
		return true
	})
	return werr
}

// classify maps an expansion failure onto the error taxonomy. Parsing has
// already succeeded by the time expansion runs, so whatever is left came
// from evaluating the line's own content, like an arithmetic division by
// zero; wordexp(3) reports all of those as WRDE_SYNTAX and so do we.
func classify(err error) error {
	if perr := (expand.UnsetParameterError{}); errors.As(err, &perr) {
		return fmt.Errorf("%w: %s", ErrUndefVar, perr.Message)
	}
	if errors.Is(err, ErrCmdSubst) {
		return ErrCmdSubst
	}
	return fmt.Errorf("%w: %v", ErrSyntax, err)
}

// environ adapts an env.Store to the expand.Environ interface.
type environ struct {
	store env.Store
}

func (e environ) Get(name string) expand.Variable {
	val, ok := e.store.LookupEnv(name)
	if !ok {
		return expand.Variable{}
	}
	return expand.Variable{Exported: true, Kind: expand.String, Str: val}
}

func (e environ) Each(fn func(name string, vr expand.Variable) bool) {
	for _, kv := range e.store.Environ() {
		name, val, _ := strings.Cut(kv, "=")
		vr := expand.Variable{Exported: true, Kind: expand.String, Str: val}
		if !fn(name, vr) {
			return
		}
	}
}
