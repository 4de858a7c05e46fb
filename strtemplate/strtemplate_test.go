package strtemplate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/value"
)

func TestRender_ConcatenatesTextAndInterpolations(t *testing.T) {
	name := &ast.Identifier{Name: "name"}
	parts := []ast.TemplatePart{
		{Text: "hello "},
		{Expr: name},
		{Text: "!"},
	}
	out, err := Render(parts, func(e ast.Expression) (value.Value, error) {
		return value.String("world"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world!", out)
}

func TestRender_UsesUnquotedStringForm(t *testing.T) {
	parts := []ast.TemplatePart{{Expr: &ast.Identifier{Name: "x"}}}
	out, err := Render(parts, func(e ast.Expression) (value.Value, error) {
		return value.String("raw"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "raw", out, "an interpolated string renders unquoted, unlike its form inside a list or map")
}

func TestRender_PlainTextOnlyNeverEvaluates(t *testing.T) {
	parts := []ast.TemplatePart{{Text: "no interpolation here"}}
	called := false
	out, err := Render(parts, func(e ast.Expression) (value.Value, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "no interpolation here", out)
	assert.False(t, called)
}

func TestRender_PropagatesEvaluationError(t *testing.T) {
	parts := []ast.TemplatePart{
		{Text: "before "},
		{Expr: &ast.Identifier{Name: "boom"}},
		{Text: " after"},
	}
	wantErr := errors.New("undefined variable")
	_, err := Render(parts, func(e ast.Expression) (value.Value, error) {
		return nil, wantErr
	})
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
}

func TestRender_NonStringInterpolatedValueUsesItsOwnStringForm(t *testing.T) {
	parts := []ast.TemplatePart{
		{Text: "n="},
		{Expr: &ast.Identifier{Name: "n"}},
	}
	out, err := Render(parts, func(e ast.Expression) (value.Value, error) {
		return value.Number(42), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "n=42", out)
}
