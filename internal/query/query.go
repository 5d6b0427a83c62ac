// Package query filters framed files with expr-lang expressions.
//
// Expressions see the flattened metadata as meta (e.g.
// meta["git-remote"] contains "github.com"), plus path, version, title, ext,
// series and points. They must evaluate to a boolean.
package query

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"trepro/internal/codec"
	"trepro/internal/faults"
	"trepro/internal/savefig"
)

// Env is the evaluation environment for one file.
type Env struct {
	Meta    map[string]string `expr:"meta"`
	Path    string            `expr:"path"`
	Version string            `expr:"version"`
	Title   string            `expr:"title"`
	Ext     string            `expr:"ext"`
	Series  int               `expr:"series"`
	Points  int               `expr:"points"`
}

// EnvFor builds the environment for an inspected file.
func EnvFor(insp *savefig.Inspection) Env {
	env := Env{Meta: map[string]string{}}
	if insp == nil {
		return env
	}
	env.Path = insp.Path
	env.Ext = strings.ToLower(filepath.Ext(insp.Path))
	if insp.Metadata != nil {
		env.Meta = insp.Metadata
		env.Version = insp.Metadata[codec.KeySaveVersion]
	}
	if insp.Figure != nil {
		env.Title = insp.Figure.Title
		env.Series = len(insp.Figure.Series)
		env.Points = insp.Figure.PointCount()
	}
	return env
}

// Filter is a compiled expression. The zero Filter matches everything.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile parses expression. An empty expression yields a match-all filter.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "query", "compile", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expression
}

// Match evaluates the filter against env.
func (f *Filter) Match(env Env) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	if env.Meta == nil {
		env.Meta = map[string]string{}
	}
	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q against %s: %w", f.expression, env.Path, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", f.expression, out)
	}
	return matched, nil
}
