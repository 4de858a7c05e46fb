// Package stdlib assembles Sei's small virtual "std" bundle: a
// directory of tiny Sei-source modules (io streams, process
// environment) that simply re-export host bindings a prelude
// environment installs before any module evaluates.
//
// This package is new relative to the teacher (go-mix has no module
// system at all, let alone a standard library), generalized from
// spec.md §6's External Interfaces list
// (env_args/env_argv/env_var/io streams) and from the expanded spec's
// DOMAIN STACK commitment to exercise gopkg.in/yaml.v3 with a
// describable module manifest rather than leaving it a vestigial
// indirect dependency the way go-mix does.
package stdlib

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-sei/sei/builtin"
	"github.com/go-sei/sei/module"
	"github.com/go-sei/sei/value"
)

// ioSource re-exports the three prelude-installed stream bindings as a
// module Map; importing `std:io` gives `{stdout: ..., stdin: ...,
// stderr: ...}`.
const ioSource = `export { stdout: io_stdout, stdin: io_stdin, stderr: io_stderr }`

// envSource re-exports the process-environment bindings: `std:env`
// gives `{args: {...}, argv: {...}, var: |name| {...}}`.
const envSource = `export { args: env_args, argv: env_argv, var: env_var }`

// Prelude builds the root-scope bindings every module environment is
// seeded with: the host values and builtins the virtual std modules
// above reference by name. scriptArgs is the script path followed by
// the script's own arguments — the interpreter binary's name and its
// leading option flags already stripped by cmd/sei — installed as a map
// keyed "0" (the script path), "1", "2", ... under both env_args and
// its alias env_argv.
func Prelude(scriptArgs []string) map[string]value.Value {
	args := value.NewMap()
	for i, a := range scriptArgs {
		_ = args.Set(value.String(fmt.Sprintf("%d", i)), value.String(a))
	}
	return map[string]value.Value{
		"io_stdout": &value.Stream{Name: "stdout", Writer: os.Stdout},
		"io_stdin":  &value.Stream{Name: "stdin", Reader: os.Stdin},
		"io_stderr": &value.Stream{Name: "stderr", Writer: os.Stderr},
		"env_args":  args,
		"env_argv":  args,
		"env_var": builtin.Register("env_var", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("env_var expects 1 argument")
			}
			name, ok := args[0].(value.String)
			if !ok {
				return nil, fmt.Errorf("env_var expects a string argument")
			}
			v, ok := os.LookupEnv(string(name))
			if !ok {
				return value.NilValue, nil
			}
			return value.String(v), nil
		}),
	}
}

// Tree builds the virtual "std" directory module.NewRegistry expects:
// std:io and std:env, both tiny Sei-source re-exports of the Prelude
// bindings above.
func Tree() module.VirtualNode {
	return module.VirtualDirectory{
		Children: map[string]module.VirtualNode{
			"io":  module.VirtualFile{Source: ioSource},
			"env": module.VirtualFile{Source: envSource},
		},
	}
}

// Manifest is a yaml.v3-marshalable description of the virtual std
// tree, for `cmd/sei --describe-std`.
type Manifest struct {
	Modules []ManifestEntry `yaml:"modules"`
}

type ManifestEntry struct {
	Name    string          `yaml:"name"`
	Exports []string        `yaml:"exports,omitempty"`
	Entries []ManifestEntry `yaml:"entries,omitempty"`
}

// BuildManifest describes Tree()'s shape directly — kept in sync by
// hand since the bundle is small and fixed; a reflective walk of
// VirtualNode would be overkill for two modules.
func BuildManifest() Manifest {
	return Manifest{
		Modules: []ManifestEntry{
			{Name: "std:io", Exports: []string{"stdout", "stdin", "stderr"}},
			{Name: "std:env", Exports: []string{"args", "argv", "var"}},
		},
	}
}

// DescribeYAML renders BuildManifest() as YAML text.
func DescribeYAML() (string, error) {
	out, err := yaml.Marshal(BuildManifest())
	if err != nil {
		return "", err
	}
	return string(out), nil
}
