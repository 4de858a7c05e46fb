// String methods reachable through the :: call operator. The receiver
// arrives as args[0], guaranteed by the dispatch in package eval to be
// a value.String; the remaining args are the call's own arguments.
package stdlib

import (
	"fmt"
	"strings"

	"github.com/go-sei/sei/value"
)

var stringMethods = []methodEntry{
	{Name: "len", Fn: stringLen},                // Number of Unicode scalars
	{Name: "upper", Fn: stringUpper},            // Uppercase copy
	{Name: "lower", Fn: stringLower},            // Lowercase copy
	{Name: "trim", Fn: stringTrim},              // Whitespace trimmed from both ends
	{Name: "contains", Fn: stringContains},      // Substring presence
	{Name: "split", Fn: stringSplit},            // Split into a list by separator
	{Name: "replace", Fn: stringReplace},        // Replace every occurrence
	{Name: "starts_with", Fn: stringStartsWith}, // Prefix check
	{Name: "ends_with", Fn: stringEndsWith},     // Suffix check
}

func init() {
	registerMethods(value.KindString, stringMethods)
}

func recvString(args []value.Value) string {
	return string(args[0].(value.String))
}

func oneStringArg(args []value.Value, method string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("string::%s expects 1 argument, got %d", method, len(args)-1)
	}
	s, ok := args[1].(value.String)
	if !ok {
		return "", fmt.Errorf("string::%s expects a string argument, got %s", method, args[1].Kind())
	}
	return string(s), nil
}

func stringLen(args []value.Value) (value.Value, error) {
	return value.Number(len([]rune(recvString(args)))), nil
}

func stringUpper(args []value.Value) (value.Value, error) {
	return value.String(strings.ToUpper(recvString(args))), nil
}

func stringLower(args []value.Value) (value.Value, error) {
	return value.String(strings.ToLower(recvString(args))), nil
}

func stringTrim(args []value.Value) (value.Value, error) {
	return value.String(strings.TrimSpace(recvString(args))), nil
}

func stringContains(args []value.Value) (value.Value, error) {
	sub, err := oneStringArg(args, "contains")
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.Contains(recvString(args), sub)), nil
}

func stringSplit(args []value.Value) (value.Value, error) {
	sep, err := oneStringArg(args, "split")
	if err != nil {
		return nil, err
	}
	parts := strings.Split(recvString(args), sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewList(out), nil
}

func stringReplace(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("string::replace expects 2 arguments, got %d", len(args)-1)
	}
	oldS, ok1 := args[1].(value.String)
	newS, ok2 := args[2].(value.String)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("string::replace expects string arguments")
	}
	return value.String(strings.ReplaceAll(recvString(args), string(oldS), string(newS))), nil
}

func stringStartsWith(args []value.Value) (value.Value, error) {
	prefix, err := oneStringArg(args, "starts_with")
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.HasPrefix(recvString(args), prefix)), nil
}

func stringEndsWith(args []value.Value) (value.Value, error) {
	suffix, err := oneStringArg(args, "ends_with")
	if err != nil {
		return nil, err
	}
	return value.Boolean(strings.HasSuffix(recvString(args), suffix)), nil
}
