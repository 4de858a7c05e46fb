// Sei's CLI entry point: file mode, interactive REPL mode, and a
// --describe-std flag that dumps the virtual standard library's shape
// as YAML.
//
// Grounded on the teacher's main/main.go (os.Args dispatch between
// --help/--version/file-argument/bare-REPL), generalized to drop
// go-mix's "server" mode (no network front-end is part of this spec's
// scope per spec.md §1's deliberately-out-of-scope list) and to wire
// the pieces spec.md §6 calls "external collaborators": this is the
// file that actually constructs a module.Registry, a shell.Bridge, and
// the stdlib.Prelude bindings, and hands them to eval.Evaluator.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/go-sei/sei/environ"
	"github.com/go-sei/sei/eval"
	"github.com/go-sei/sei/module"
	"github.com/go-sei/sei/parser"
	"github.com/go-sei/sei/repl"
	"github.com/go-sei/sei/shell"
	"github.com/go-sei/sei/stdlib"
	"github.com/go-sei/sei/value"
)

const (
	version = "v0.1.0"
	author  = "go-sei"
	license = "MIT"
	prompt  = "sei >>> "
	line    = "----------------------------------------------------------------"
	banner  = `
   ____  ____ _
  / ___|/ ___| (_)
  \___ \|  _|| | |
   ___) | |_| | |
  |____/|____|_|_|
`
)

var (
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
	cyanColor   = color.New(color.FgCyan)
)

func main() {
	args := os.Args[1:]
	// Leading '-' options belong to the interpreter, never to the
	// script: the first non-option argument is the script path and
	// everything after it is the script's own argv.
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "--help", "-h":
			showHelp()
			return
		case "--version", "-v":
			showVersion()
			return
		case "--describe-std":
			out, err := stdlib.DescribeYAML()
			if err != nil {
				redColor.Fprintf(os.Stderr, "[ERROR] %v\n", err)
				os.Exit(1)
			}
			fmt.Print(out)
			return
		default:
			args = args[1:]
		}
	}
	if len(args) > 0 {
		runFile(args[0], args[1:])
		return
	}
	runRepl()
}

func showHelp() {
	cyanColor.Println("Sei - A Small Scripting Language")
	cyanColor.Println("")
	cyanColor.Println("USAGE:")
	yellowColor.Println("  sei                    Start interactive REPL mode")
	yellowColor.Println("  sei <path-to-file>     Execute a Sei file (.si)")
	yellowColor.Println("  sei --describe-std     Print the virtual std module tree as YAML")
	yellowColor.Println("  sei --help             Display this help message")
	yellowColor.Println("  sei --version          Display version information")
	cyanColor.Println("")
	cyanColor.Println("REPL COMMANDS:")
	yellowColor.Println("  /exit                  Exit the REPL")
	yellowColor.Println("  /scope                 Show current top-level bindings")
}

func showVersion() {
	cyanColor.Printf("Sei %s | License: %s | %s\n", version, license, author)
}

// newEvaluator builds an Evaluator backed by a real filesystem+virtual
// module registry rooted at baseDir, seeded with the stdlib.Prelude
// bindings every module environment needs (io streams, env_args,
// env_var) — the wiring spec.md §6 describes as the embedder's
// responsibility, done here once for both file and REPL mode.
func newEvaluator(baseDir string, osArgs []string) (*eval.Evaluator, value.Env) {
	prelude := stdlib.Prelude(osArgs)
	newEnv := func() value.Env {
		e := environ.New()
		for name, v := range prelude {
			e.DefineLocal(name, v)
		}
		return e
	}

	ev := eval.New(nil, shell.OSBridge{})
	reg := module.NewRegistry(ev.ModuleEvalFunc, newEnv, baseDir, stdlib.Tree())
	ev.Registry = reg

	return ev, newEnv()
}

// runFile reads and executes a Sei source file, exiting nonzero on any
// parse or runtime error — go-mix's runFile/executeFileWithRecovery
// shape, generalized to build the module registry/prelude this
// language's imports and env_args builtin need, neither of which
// go-mix's evaluator has any notion of.
func runFile(fileName string, scriptArgs []string) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[FILE ERROR] Could not read file %q: %v\n", fileName, err)
		os.Exit(1)
	}

	baseDir, _ := filepath.Abs(filepath.Dir(fileName))
	osArgs := append([]string{fileName}, scriptArgs...)
	ev, env := newEvaluator(baseDir, osArgs)

	defer func() {
		if rec := recover(); rec != nil {
			redColor.Fprintf(os.Stderr, "[RUNTIME ERROR] %v\n", rec)
			os.Exit(1)
		}
	}()

	p := parser.New(string(src))
	prog, err := p.ParseProgram()
	if err != nil {
		redColor.Fprintf(os.Stderr, "[PARSE ERROR] %s\n", err)
		os.Exit(1)
	}

	result, err := ev.Run(prog, env)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[RUNTIME ERROR] %s\n", err)
		os.Exit(1)
	}
	if _, isNil := result.(value.Nil); !isNil {
		yellowColor.Fprintf(os.Stdout, "%s\n", result.String())
	}
}

func runRepl() {
	cwd, _ := os.Getwd()
	ev, env := newEvaluator(cwd, []string{"sei"})
	r := repl.New(banner, version, author, line, license, prompt, ev, env)
	r.Start(os.Stdout)
}
