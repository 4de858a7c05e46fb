// Package strtemplate renders the interpolated parts of a string or
// shell-command literal (ast.TemplatePart) into a final string, once
// each embedded expression has been evaluated to a value.Value.
//
// Grounded on the teacher's absence of any interpolation support at all
// (go-mix's strings are plain, uninterpolated StringLiteral tokens) —
// this package is new, generalized from spec.md §4.1's `${...}` syntax.
// The rendering rule itself (every value's ordinary String() form, with
// no further quoting) is carried over unchanged from
// original_source/src/runtime/template.rs, which the spec's distillation
// left unstated.
package strtemplate

import (
	"strings"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/value"
)

// EvalFunc evaluates a single interpolated expression to a Value.
type EvalFunc func(ast.Expression) (value.Value, error)

// Render concatenates parts into a string, evaluating each interpolation
// in order and rendering it via its ordinary Value.String() form —
// strings render unquoted (unlike their representation inside a List or
// Map), matching how a top-level print would show them.
func Render(parts []ast.TemplatePart, eval EvalFunc) (string, error) {
	var sb strings.Builder
	for _, p := range parts {
		if p.Expr == nil {
			sb.WriteString(p.Text)
			continue
		}
		v, err := eval(p.Expr)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.String())
	}
	return sb.String(), nil
}
