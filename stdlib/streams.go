// Stream methods reachable through the :: call operator: writing a
// string's bytes to a stream's sink and reading whatever bytes its
// source still has to offer. A pipeline stage reads and writes exactly
// these methods against the io_stdin/io_stdout streams the evaluator
// substitutes into its call environment.
package stdlib

import (
	"fmt"
	"io"

	"github.com/go-sei/sei/value"
)

var streamMethods = []methodEntry{
	{Name: "write", Fn: streamWrite},
	{Name: "read", Fn: streamRead},
}

func init() {
	registerMethods(value.KindStream, streamMethods)
}

func recvStream(args []value.Value) *value.Stream {
	return args[0].(*value.Stream)
}

func streamWrite(args []value.Value) (value.Value, error) {
	s := recvStream(args)
	if s.Writer == nil {
		return nil, fmt.Errorf("stream %q is not writable", s.Name)
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("stream::write expects 1 argument, got %d", len(args)-1)
	}
	str, ok := args[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("stream::write expects a string argument, got %s", args[1].Kind())
	}
	if _, err := s.Writer.Write([]byte(str)); err != nil {
		return nil, fmt.Errorf("writing to stream %q: %w", s.Name, err)
	}
	return value.NilValue, nil
}

func streamRead(args []value.Value) (value.Value, error) {
	s := recvStream(args)
	if s.Reader == nil {
		return nil, fmt.Errorf("stream %q is not readable", s.Name)
	}
	data, err := io.ReadAll(s.Reader)
	if err != nil {
		return nil, fmt.Errorf("reading from stream %q: %w", s.Name, err)
	}
	return value.String(string(data)), nil
}
