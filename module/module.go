// Package module implements Sei's import resolution: a cache keyed by
// canonical filesystem path or virtual segment path, resolution across
// env-bound roots, the filesystem, and a lazily-installed virtual
// standard library tree, and cycle detection via a load-in-progress
// guard.
//
// To avoid a module <-> eval import cycle (resolving an import requires
// running the loaded file's statements, which is eval's job; eval needs
// a Registry to resolve the import statements it encounters), Registry
// never imports package eval. Instead it is constructed with an EvalFunc
// callback that the wiring code in cmd/sei supplies, closing the loop
// without either package depending on the other.
//
// Grounded on the teacher's absence of a module system (go-mix has none)
// generalized from spec.md §5 and, where the spec is silent on exact
// mechanics (load-guard rollback, virtual tree laziness), from
// original_source/src/runtime/module_registry.rs.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-sei/sei/value"
)

// CacheKeyKind discriminates the two ways a module can be addressed.
type CacheKeyKind int

const (
	KeyFilesystem CacheKeyKind = iota
	KeyVirtual
)

// CacheKey identifies a loaded module for memoization and cycle
// detection. Filesystem modules are keyed by their canonicalized
// absolute path; virtual modules by their colon-joined segment path.
type CacheKey struct {
	Kind CacheKeyKind
	Path string
}

func fsKey(path string) CacheKey    { return CacheKey{Kind: KeyFilesystem, Path: path} }
func virtualKey(segs []string) CacheKey {
	return CacheKey{Kind: KeyVirtual, Path: strings.Join(segs, ":")}
}

// ErrorKind identifies a module resolution failure.
type ErrorKind string

const (
	ErrModuleNotFound          ErrorKind = "ModuleNotFound"
	ErrCircularModuleDependency ErrorKind = "CircularModuleDependency"
	ErrIO                      ErrorKind = "IOError"
)

type Error struct {
	Kind ErrorKind
	Path string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Path) }

// VirtualNode is one entry of the builtin/virtual standard-library tree:
// either a File holding source text to evaluate lazily, or a Directory
// of further named children.
type VirtualNode interface{ virtualNode() }

type VirtualFile struct{ Source string }

func (VirtualFile) virtualNode() {}

type VirtualDirectory struct{ Children map[string]VirtualNode }

func (VirtualDirectory) virtualNode() {}

// EvalFunc runs the parsed statements of a module's source against a
// fresh root environment and returns the Value produced by its export
// statement (value.NilValue if the module exports nothing). filename is
// used only for error messages.
type EvalFunc func(source, filename string, env value.Env, reg *Registry) (value.Value, error)

// Registry resolves import paths to memoized value.ModuleHandles.
type Registry struct {
	eval EvalFunc
	// newEnv constructs a fresh root environment for a loaded module's
	// top-level scope. Supplied by the caller (cmd/sei's wiring code)
	// rather than imported directly, since the concrete environ package
	// sits above module in the dependency graph.
	newEnv func() value.Env

	// EnvRoots maps a first path segment to a filesystem directory it
	// should resolve against, letting a host embed extra module roots
	// (e.g. a project's own library directory) ahead of the filesystem
	// and virtual std fallbacks.
	EnvRoots map[string]string

	// Virtual is the builtin "std" module tree, installed lazily: each
	// VirtualDirectory's children become real value.Module entries only
	// the first time they're resolved, per original_source's "lazy
	// per-child installation" note.
	Virtual VirtualNode

	cache   map[CacheKey]*value.ModuleHandle
	loading map[CacheKey]bool

	// importerStack is the stack of directories each nested import is
	// resolved relative to: pushed when a file-backed module begins
	// evaluating, popped when it finishes.
	importerStack []string
}

// NewRegistry creates a Registry rooted at baseDir (the directory of the
// program's entry file, used to resolve its own top-level imports).
// newEnv constructs the fresh root scope each loaded module evaluates
// in.
func NewRegistry(eval EvalFunc, newEnv func() value.Env, baseDir string, virtual VirtualNode) *Registry {
	return &Registry{
		eval:          eval,
		newEnv:        newEnv,
		EnvRoots:      map[string]string{},
		Virtual:       virtual,
		cache:         map[CacheKey]*value.ModuleHandle{},
		loading:       map[CacheKey]bool{},
		importerStack: []string{baseDir},
	}
}

func (r *Registry) currentDir() string {
	if len(r.importerStack) == 0 {
		return "."
	}
	return r.importerStack[len(r.importerStack)-1]
}

// Resolve locates the module named by segments (e.g. ["std","io"] for
// `import std:io`), returning a handle whose Force() lazily evaluates it
// exactly once. env, when non-nil, is the importing statement's own
// environment: per module_registry.rs's resolve_module_path, a root
// already bound to a value there (a Map passed around as a namespace,
// say) takes precedence over any filesystem or virtual lookup, and the
// remaining segments are navigated as nested map-key lookups into it
// rather than ever touching the filesystem.
func (r *Registry) Resolve(segments []string, env value.Env) (*value.ModuleHandle, error) {
	if env != nil {
		if v, ok := env.Lookup(segments[0]); ok {
			final, err := navigateSegments(v, segments[1:], segments)
			if err != nil {
				return nil, err
			}
			return value.NewModuleHandle(strings.Join(segments, ":"), segments, nil, func() (value.Value, error) { return final, nil }), nil
		}
	}
	if root, ok := r.EnvRoots[segments[0]]; ok {
		if h, err, handled := r.resolveFilesystemChain(".", root, segments); handled {
			return h, err
		}
	}
	if h, err, handled := r.resolveFilesystemChain(r.currentDir(), segments[0], segments); handled {
		return h, err
	}
	if r.Virtual != nil {
		if h, err, handled := r.resolveVirtual(segments); handled {
			return h, err
		}
	}
	return nil, &Error{Kind: ErrModuleNotFound, Path: strings.Join(segments, ":")}
}

// resolveFilesystemChain tries the two on-disk shapes a root segment can
// take, in preference order: the single file base/name.si first, then —
// when the file is absent, or exists but cannot satisfy the remaining
// segments — the directory base/name (its index.si when present, its
// enumerated children otherwise). Only a not-found outcome falls through
// from one shape to the next; a genuine failure (a cycle, an unreadable
// file, an evaluation error in a module that does exist) propagates
// immediately rather than being masked by a weaker fallback.
func (r *Registry) resolveFilesystemChain(base, name string, segments []string) (h *value.ModuleHandle, err error, handled bool) {
	var notFound error

	filePath := joinRoot(base, name+".si")
	if info, statErr := os.Stat(filePath); statErr == nil && !info.IsDir() {
		canon, _ := filepath.Abs(filePath)
		h, err := r.navigateHandle(r.loadFile(canon), segments)
		if err == nil {
			return h, nil, true
		}
		if !isNotFound(err) {
			return nil, err, true
		}
		notFound = err
	}

	dirPath := joinRoot(base, name)
	if info, statErr := os.Stat(dirPath); statErr == nil && info.IsDir() {
		var root *value.ModuleHandle
		indexPath := filepath.Join(dirPath, "index.si")
		if _, statErr := os.Stat(indexPath); statErr == nil {
			canon, _ := filepath.Abs(indexPath)
			root = r.loadFile(canon)
		} else {
			canon, _ := filepath.Abs(dirPath)
			var derr error
			root, derr = r.loadDirectory(canon)
			if derr != nil {
				return nil, derr, true
			}
		}
		h, err := r.navigateHandle(root, segments)
		if err == nil {
			return h, nil, true
		}
		if !isNotFound(err) {
			return nil, err, true
		}
		if notFound == nil {
			notFound = err
		}
	}

	if notFound != nil {
		return nil, notFound, true
	}
	return nil, nil, false
}

func isNotFound(err error) bool {
	me, ok := err.(*Error)
	return ok && me.Kind == ErrModuleNotFound
}

// navigateHandle forces h only when segments name something beyond the
// root (a bare `import name` stays lazy, returning h untouched), then
// walks the rest as nested map-key lookups into the forced value. Only
// the root segment is ever resolved against the filesystem; module_
// registry.rs's resolve_module_path does the same, treating a multi-
// segment import as "resolve the root, then index into it" rather than
// joining every segment into one path to stat.
func (r *Registry) navigateHandle(h *value.ModuleHandle, segments []string) (*value.ModuleHandle, error) {
	if len(segments) == 1 {
		return h, nil
	}
	root, err := h.Force()
	if err != nil {
		return nil, err
	}
	final, err := navigateSegments(root, segments[1:], segments)
	if err != nil {
		return nil, err
	}
	return value.NewModuleHandle(strings.Join(segments, ":"), segments, nil, func() (value.Value, error) { return final, nil }), nil
}

// navigateSegments walks v through each of rest as a map-key lookup,
// the same nested-module navigation module_registry.rs's
// resolve_nested_module_item performs once an import path's root is
// resolved. A *value.ModuleHandle found along the way (a directory
// module's lazily-installed child) is forced before the walk continues
// past it.
func navigateSegments(v value.Value, rest []string, full []string) (value.Value, error) {
	current := v
	for _, seg := range rest {
		m, ok := current.(*value.Map)
		if !ok {
			return nil, &Error{Kind: ErrModuleNotFound, Path: strings.Join(full, ":")}
		}
		next, ok := m.Get(value.String(seg))
		if !ok {
			return nil, &Error{Kind: ErrModuleNotFound, Path: strings.Join(full, ":")}
		}
		if handle, ok := next.(*value.ModuleHandle); ok {
			forced, ferr := handle.Force()
			if ferr != nil {
				return nil, ferr
			}
			next = forced
		}
		current = next
	}
	return current, nil
}

// joinRoot joins base and name unless name is already absolute (an
// EnvRoots entry naming a directory outside the importer tree), in
// which case base is irrelevant and would only corrupt the result.
func joinRoot(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(base, name)
}

// loadDirectory builds a Map of a directory's .si file stems and
// subdirectory names to their own module handles, skipping dotfiles and
// sorting by name — the "no index.si" fallback a bare `import a:b`
// naming a plain directory resolves to. Forcing the returned handle
// forces every entry, yielding a Map of each file's evaluated value and
// each subdirectory's own Map.
func (r *Registry) loadDirectory(canonDir string) (*value.ModuleHandle, error) {
	key := fsKey(canonDir)
	if h, ok := r.cache[key]; ok {
		return h, nil
	}
	entries, err := os.ReadDir(canonDir)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Path: canonDir}
	}
	m := value.NewMap()
	names := make([]string, 0, len(entries))
	byName := map[string]os.DirEntry{}
	for _, ent := range entries {
		name := ent.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
		byName[name] = ent
	}
	sort.Strings(names)
	for _, name := range names {
		ent := byName[name]
		childPath := filepath.Join(canonDir, name)
		if ent.IsDir() {
			childHandle, err := r.loadDirectory(childPath)
			if err != nil {
				continue
			}
			_ = m.Set(value.String(name), childHandle)
			continue
		}
		if !strings.HasSuffix(name, ".si") {
			continue
		}
		stem := strings.TrimSuffix(name, ".si")
		_ = m.Set(value.String(stem), r.loadFile(childPath))
	}
	h := value.NewModuleHandle(canonDir, nil, nil, func() (value.Value, error) {
		out := value.NewMap()
		var ferr error
		m.Each(func(p value.Pair) bool {
			v, err := p.Val.(*value.ModuleHandle).Force()
			ferr = err
			if err == nil {
				_ = out.Set(p.Key, v)
			}
			return err == nil
		})
		if ferr != nil {
			return nil, ferr
		}
		return out, nil
	})
	r.cache[key] = h
	return h, nil
}

func (r *Registry) loadFile(canonPath string) *value.ModuleHandle {
	key := fsKey(canonPath)
	if h, ok := r.cache[key]; ok {
		return h
	}
	h := value.NewModuleHandle(canonPath, nil, nil, func() (value.Value, error) {
		if r.loading[key] {
			return nil, &Error{Kind: ErrCircularModuleDependency, Path: canonPath}
		}
		r.loading[key] = true
		defer delete(r.loading, key)

		src, err := os.ReadFile(canonPath)
		if err != nil {
			return nil, &Error{Kind: ErrIO, Path: canonPath}
		}
		r.importerStack = append(r.importerStack, filepath.Dir(canonPath))
		defer func() { r.importerStack = r.importerStack[:len(r.importerStack)-1] }()

		env := r.newEnv()
		v, err := r.eval(string(src), canonPath, env, r)
		if err != nil {
			delete(r.cache, key) // roll back so a later, independent import can retry
			return nil, err
		}
		return v, nil
	})
	r.cache[key] = h
	return h
}

// resolveVirtual walks r.Virtual by segments, installing each
// directory's children into the cache lazily the first time it's
// descended into.
func (r *Registry) resolveVirtual(segments []string) (h *value.ModuleHandle, err error, handled bool) {
	key := virtualKey(segments)
	if h, ok := r.cache[key]; ok {
		return h, nil, true
	}
	node := r.Virtual
	for _, seg := range segments {
		dir, ok := node.(VirtualDirectory)
		if !ok {
			return nil, nil, false
		}
		child, ok := dir.Children[seg]
		if !ok {
			return nil, nil, false
		}
		node = child
	}
	display := strings.Join(segments, ":")
	switch n := node.(type) {
	case VirtualFile:
		h := value.NewModuleHandle(display, segments, &n.Source, func() (value.Value, error) {
			if r.loading[key] {
				return nil, &Error{Kind: ErrCircularModuleDependency, Path: key.Path}
			}
			r.loading[key] = true
			defer delete(r.loading, key)
			env := r.newEnv()
			v, err := r.eval(n.Source, key.Path, env, r)
			if err != nil {
				delete(r.cache, key)
				return nil, err
			}
			return v, nil
		})
		r.cache[key] = h
		return h, nil, true
	case VirtualDirectory:
		m := value.NewMap()
		names := make([]string, 0, len(n.Children))
		for name := range n.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			childSegs := append(append([]string{}, segments...), name)
			childHandle, _, _ := r.resolveVirtual(childSegs)
			_ = m.Set(value.String(name), childHandle)
		}
		h := value.NewModuleHandle(display, segments, nil, func() (value.Value, error) { return m, nil })
		r.cache[key] = h
		return h, nil, true
	}
	return nil, nil, false
}
