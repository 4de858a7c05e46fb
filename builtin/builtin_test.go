package builtin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/value"
)

func TestRegister_ReturnsASingleMarkerParamFunction(t *testing.T) {
	fn := Register("double", func(args []value.Value) (value.Value, error) {
		n := args[0].(value.Number)
		return n * 2, nil
	})
	require.Len(t, fn.Params, 1)
	assert.Contains(t, fn.Params[0].Name, "double")
}

func TestName_RecognizesAMarkerFunctionAndRejectsAnOrdinaryClosure(t *testing.T) {
	builtinFn := Register("triple", func(args []value.Value) (value.Value, error) { return nil, nil })
	name, ok := Name(builtinFn)
	require.True(t, ok)
	assert.Equal(t, "triple", name)

	ordinary := &value.Function{Params: []ast.Param{{Name: "x"}}}
	_, ok = Name(ordinary)
	assert.False(t, ok, "a user-defined closure's parameter name must never be mistaken for a builtin marker")
}

func TestCall_DispatchesToTheRegisteredHostFunc(t *testing.T) {
	fn := Register("add_one", func(args []value.Value) (value.Value, error) {
		return args[0].(value.Number) + 1, nil
	})
	result, err, ok := Call(fn, []value.Value{value.Number(41)})
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, value.Number(42), result)
}

func TestCall_ReportsNotOkForAnOrdinaryFunction(t *testing.T) {
	ordinary := &value.Function{Params: []ast.Param{{Name: "x"}}}
	_, _, ok := Call(ordinary, nil)
	assert.False(t, ok)
}

func TestRegisterMethod_IsReachableThroughLookupAndCall(t *testing.T) {
	RegisterMethod(value.KindString, "shout", func(args []value.Value) (value.Value, error) {
		return args[0].(value.String) + "!", nil
	})

	fn, ok := LookupMethod(value.KindString, "shout")
	require.True(t, ok)
	result, err, isBuiltin := Call(fn, []value.Value{value.String("hey")})
	require.True(t, isBuiltin)
	require.NoError(t, err)
	assert.Equal(t, value.String("hey!"), result)
}

func TestLookupMethod_IsPerReceiverKind(t *testing.T) {
	RegisterMethod(value.KindList, "only_on_lists", func(args []value.Value) (value.Value, error) {
		return value.NilValue, nil
	})

	_, ok := LookupMethod(value.KindList, "only_on_lists")
	assert.True(t, ok)
	_, ok = LookupMethod(value.KindString, "only_on_lists")
	assert.False(t, ok, "a method registered for one kind must not resolve for another")
	_, ok = LookupMethod(value.KindList, "never_registered")
	assert.False(t, ok)
}

func TestCall_PropagatesHostFuncError(t *testing.T) {
	wantErr := errors.New("boom")
	fn := Register("failer", func(args []value.Value) (value.Value, error) {
		return nil, wantErr
	})
	_, err, ok := Call(fn, nil)
	require.True(t, ok)
	assert.Equal(t, wantErr, err)
}
