// List and tuple methods reachable through the :: call operator. The
// receiver arrives as args[0] with its kind already checked by the
// dispatch in package eval. List methods that mutate (push, pop) act
// on the receiver in place, which is the live value of the binding the
// method was called on.
package stdlib

import (
	"fmt"

	"github.com/go-sei/sei/value"
)

var listMethods = []methodEntry{
	{Name: "len", Fn: listLen},           // Number of elements
	{Name: "push", Fn: listPush},         // Append an element in place
	{Name: "pop", Fn: listPop},           // Remove and return the last element
	{Name: "contains", Fn: listContains}, // Structural membership test
	{Name: "reverse", Fn: listReverse},   // New list in reverse order
}

var tupleMethods = []methodEntry{
	{Name: "len", Fn: tupleLen},
}

func init() {
	registerMethods(value.KindList, listMethods)
	registerMethods(value.KindTuple, tupleMethods)
}

func recvList(args []value.Value) *value.List {
	return args[0].(*value.List)
}

func listLen(args []value.Value) (value.Value, error) {
	return value.Number(len(recvList(args).Elements)), nil
}

func listPush(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("list::push expects 1 argument, got %d", len(args)-1)
	}
	l := recvList(args)
	l.Elements = append(l.Elements, args[1])
	return l, nil
}

func listPop(args []value.Value) (value.Value, error) {
	l := recvList(args)
	if len(l.Elements) == 0 {
		return nil, fmt.Errorf("list::pop on an empty list")
	}
	last := l.Elements[len(l.Elements)-1]
	l.Elements = l.Elements[:len(l.Elements)-1]
	return last, nil
}

func listContains(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("list::contains expects 1 argument, got %d", len(args)-1)
	}
	for _, el := range recvList(args).Elements {
		if value.Equal(el, args[1]) {
			return value.Boolean(true), nil
		}
	}
	return value.Boolean(false), nil
}

func listReverse(args []value.Value) (value.Value, error) {
	src := recvList(args).Elements
	out := make([]value.Value, len(src))
	for i, el := range src {
		out[len(src)-1-i] = value.Copy(el)
	}
	return value.NewList(out), nil
}

func tupleLen(args []value.Value) (value.Value, error) {
	return value.Number(len(args[0].(*value.Tuple).Elements)), nil
}
