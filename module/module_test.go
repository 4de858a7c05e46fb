package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sei/sei/environ"
	"github.com/go-sei/sei/value"
)

// echoEval is a stand-in for eval.Evaluator.ModuleEvalFunc: it never
// parses Sei source, just returns the module's source text as a Value
// (or fails when the source is the sentinel failSource), so these tests
// can exercise resolution/caching/cycle-detection without depending on
// package eval.
func echoEval(source, filename string, env value.Env, reg *Registry) (value.Value, error) {
	if source == failSource {
		return nil, assertError
	}
	return value.String(source), nil
}

const failSource = "__fail__"

var assertError = &Error{Kind: ErrIO, Path: "synthetic failure"}

func newEnv() value.Env { return environ.New() }

func TestResolve_FilesystemFileModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.si"), []byte("hello"), 0o644))

	reg := NewRegistry(echoEval, newEnv, dir, nil)
	h, err := reg.Resolve([]string{"greet"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("hello"), v)
}

func TestResolve_DirectoryWithIndexFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "index.si"), []byte("pkg body"), 0o644))

	reg := NewRegistry(echoEval, newEnv, dir, nil)
	h, err := reg.Resolve([]string{"pkg"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("pkg body"), v)
}

func TestResolve_DirectoryWithoutIndexEnumeratesChildrenSortedAndSkipsDotfiles(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "b.si"), []byte("b body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "a.si"), []byte("a body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, ".hidden.si"), []byte("hidden"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "notes.txt"), []byte("ignored"), 0o644))

	reg := NewRegistry(echoEval, newEnv, dir, nil)
	h, err := reg.Resolve([]string{"pkg"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	m, ok := v.(*value.Map)
	require.True(t, ok)
	assert.Equal(t, 2, m.Len(), "the hidden file and the non-.si file must both be skipped")
	av, ok := m.Get(value.String("a"))
	require.True(t, ok)
	assert.Equal(t, value.String("a body"), av)
	_, hasHidden := m.Get(value.String(".hidden"))
	assert.False(t, hasHidden)
}

func TestResolve_FileFormFallsBackToDirectoryFormForDeeperChains(t *testing.T) {
	// a.si exists but (under echoEval) evaluates to a plain string, so it
	// cannot satisfy the chain a:b; resolution must then try the a/
	// directory, where b.si does live.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.si"), []byte("not a map"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b.si"), []byte("b body"), 0o644))

	reg := NewRegistry(echoEval, newEnv, dir, nil)
	h, err := reg.Resolve([]string{"a", "b"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("b body"), v)
}

func TestResolve_ModuleNotFound(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(echoEval, newEnv, dir, nil)
	_, err := reg.Resolve([]string{"nope"}, nil)
	require.Error(t, err)
	merr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrModuleNotFound, merr.Kind)
}

func TestForce_IsMemoizedAcrossRepeatedResolves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once.si")
	require.NoError(t, os.WriteFile(path, []byte("state"), 0o644))

	calls := 0
	countingEval := func(source, filename string, env value.Env, reg *Registry) (value.Value, error) {
		calls++
		return value.String(source), nil
	}
	reg := NewRegistry(countingEval, newEnv, dir, nil)

	h1, err := reg.Resolve([]string{"once"}, nil)
	require.NoError(t, err)
	_, err = h1.Force()
	require.NoError(t, err)

	h2, err := reg.Resolve([]string{"once"}, nil)
	require.NoError(t, err)
	_, err = h2.Force()
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "resolving the same path twice must reuse the cached handle rather than re-evaluating")
}

func TestForce_FailureRollsBackCacheForRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flaky.si")
	require.NoError(t, os.WriteFile(path, []byte(failSource), 0o644))

	reg := NewRegistry(echoEval, newEnv, dir, nil)
	h, err := reg.Resolve([]string{"flaky"}, nil)
	require.NoError(t, err)
	_, err = h.Force()
	require.Error(t, err)

	// A second, independent resolve of the same path must be able to
	// retry rather than being permanently poisoned by the first failure.
	_, hasCached := reg.cache[fsKey(mustAbs(t, path))]
	assert.False(t, hasCached, "a failed module evaluation must roll back its cache entry")
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}

func TestVirtualTree_ResolvesNestedFileAndInstallsChildrenLazily(t *testing.T) {
	tree := VirtualDirectory{Children: map[string]VirtualNode{
		"std": VirtualDirectory{Children: map[string]VirtualNode{
			"io": VirtualFile{Source: "io module body"},
		}},
	}}
	reg := NewRegistry(echoEval, newEnv, t.TempDir(), tree)

	h, err := reg.Resolve([]string{"std", "io"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("io module body"), v)
}

func TestVirtualTree_DirectoryResolvesToMapOfChildHandles(t *testing.T) {
	tree := VirtualDirectory{Children: map[string]VirtualNode{
		"std": VirtualDirectory{Children: map[string]VirtualNode{
			"io":  VirtualFile{Source: "io body"},
			"env": VirtualFile{Source: "env body"},
		}},
	}}
	reg := NewRegistry(echoEval, newEnv, t.TempDir(), tree)

	h, err := reg.Resolve([]string{"std"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	m, ok := v.(*value.Map)
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestResolve_EnvRootTakesPrecedenceOverDefaultResolution(t *testing.T) {
	projectDir := t.TempDir()
	libDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "util.si"), []byte("lib util"), 0o644))

	reg := NewRegistry(echoEval, newEnv, projectDir, nil)
	reg.EnvRoots["lib"] = libDir

	h, err := reg.Resolve([]string{"lib", "util"}, nil)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("lib util"), v)
}

func TestResolve_EnvBoundRootNavigatesNestedSegmentsWithoutTouchingFilesystem(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(echoEval, newEnv, dir, nil)

	inner := value.NewMap()
	require.NoError(t, inner.Set(value.String("stdout"), value.String("the stdout stream")))
	outer := value.NewMap()
	require.NoError(t, outer.Set(value.String("io"), inner))

	env := newEnv()
	env.DefineLocal("bound", outer)

	h, err := reg.Resolve([]string{"bound", "io", "stdout"}, env)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("the stdout stream"), v)
}

func TestResolve_EnvBoundRootTakesPrecedenceOverFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bound.si"), []byte("filesystem body"), 0o644))
	reg := NewRegistry(echoEval, newEnv, dir, nil)

	m := value.NewMap()
	require.NoError(t, m.Set(value.String("x"), value.String("from env")))
	env := newEnv()
	env.DefineLocal("bound", m)

	h, err := reg.Resolve([]string{"bound", "x"}, env)
	require.NoError(t, err)
	v, err := h.Force()
	require.NoError(t, err)
	assert.Equal(t, value.String("from env"), v)
}

func TestCircularFilesystemImport_IsDetectedDuringForce(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.si")
	bPath := filepath.Join(dir, "b.si")
	require.NoError(t, os.WriteFile(aPath, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte("b"), 0o644))

	// A self-referential evaluator: forcing "a" immediately tries to
	// resolve and force "b", which (for this test) tries to force "a"
	// again before finishing — the load guard must catch the re-entry.
	var reg *Registry
	selfReferential := func(source, filename string, env value.Env, r *Registry) (value.Value, error) {
		if filename == aPath {
			h, err := r.Resolve([]string{"b"}, nil)
			if err != nil {
				return nil, err
			}
			return h.Force()
		}
		if filename == bPath {
			h, err := r.Resolve([]string{"a"}, nil)
			if err != nil {
				return nil, err
			}
			return h.Force()
		}
		return value.String(source), nil
	}
	reg = NewRegistry(selfReferential, newEnv, dir, nil)

	h, err := reg.Resolve([]string{"a"}, nil)
	require.NoError(t, err)
	_, err = h.Force()
	require.Error(t, err)
	merr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrCircularModuleDependency, merr.Kind)
}
