package value

import (
	"fmt"
	"reflect"
)

// Equal implements Sei's structural `==`/`!=`. Mismatched kinds are always
// unequal rather than a TypeError — src/runtime/value/comparison.rs in the
// original Rust implementation this spec was distilled from resolves that
// ambiguity this way, and spec.md itself is silent on it.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Number:
		return x == b.(Number)
	case Boolean:
		return x == b.(Boolean)
	case String:
		return x == b.(String)
	case Nil:
		return true
	case *List:
		y := b.(*List)
		if len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *Tuple:
		y := b.(*Tuple)
		if len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *Map:
		y := b.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Each(func(p Pair) bool {
			yv, ok := y.Get(p.Key)
			if !ok || !Equal(p.Val, yv) {
				equal = false
				return false
			}
			return true
		})
		return equal
	case *Regex:
		return x.Source == b.(*Regex).Source
	case *Function:
		y := b.(*Function)
		return reflect.DeepEqual(x.Params, y.Params) && reflect.DeepEqual(x.Body, y.Body)
	case *Stream:
		return false // streams are never equal, even to themselves
	case *ModuleHandle:
		return x == b.(*ModuleHandle)
	default:
		return false
	}
}

// Compare implements `<`/`<=`/`>`/`>=`, defined only for number↔number,
// string↔string, and boolean↔boolean (false < true). Any other pairing is
// a type error.
func Compare(a, b Value) (int, error) {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		if !ok {
			break
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	case String:
		y, ok := b.(String)
		if !ok {
			break
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	case Boolean:
		y, ok := b.(Boolean)
		if !ok {
			break
		}
		xi, yi := 0, 0
		if x {
			xi = 1
		}
		if y {
			yi = 1
		}
		return xi - yi, nil
	}
	return 0, fmt.Errorf("cannot compare %s with %s", a.Kind(), b.Kind())
}
