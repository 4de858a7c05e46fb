// Map methods reachable through the :: call operator. The receiver
// arrives as args[0] as a *value.Map; iteration-order methods (keys,
// values) hand entries back in insertion order, the only order a map
// has.
package stdlib

import (
	"fmt"
	"sort"

	"github.com/go-sei/sei/value"
)

var mapMethods = []methodEntry{
	{Name: "len", Fn: mapLen},               // Number of entries
	{Name: "has", Fn: mapHas},               // Key presence
	{Name: "keys", Fn: mapKeys},             // Keys in insertion order
	{Name: "values", Fn: mapValues},         // Values in insertion order
	{Name: "sortedKeys", Fn: mapSortedKeys}, // String keys, ascending
}

func init() {
	registerMethods(value.KindMap, mapMethods)
}

func recvMap(args []value.Value) *value.Map {
	return args[0].(*value.Map)
}

func mapLen(args []value.Value) (value.Value, error) {
	return value.Number(recvMap(args).Len()), nil
}

func mapHas(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("map::has expects 1 argument, got %d", len(args)-1)
	}
	_, ok := recvMap(args).Get(args[1])
	return value.Boolean(ok), nil
}

func mapKeys(args []value.Value) (value.Value, error) {
	var keys []value.Value
	recvMap(args).Each(func(p value.Pair) bool {
		keys = append(keys, value.Copy(p.Key))
		return true
	})
	return value.NewList(keys), nil
}

func mapValues(args []value.Value) (value.Value, error) {
	var vals []value.Value
	recvMap(args).Each(func(p value.Pair) bool {
		vals = append(vals, value.Copy(p.Val))
		return true
	})
	return value.NewList(vals), nil
}

func mapSortedKeys(args []value.Value) (value.Value, error) {
	var keys []string
	recvMap(args).Each(func(p value.Pair) bool {
		if s, ok := p.Key.(value.String); ok {
			keys = append(keys, string(s))
		}
		return true
	})
	sort.Strings(keys)
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.NewList(out), nil
}
