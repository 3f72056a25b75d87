package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, AtomicWrite(path, []byte("{}\n"), nil))
	require.NoError(t, AtomicWrite(path, []byte("[]\n"), nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestAtomicWrite_ValidationFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	err := AtomicWrite(path, []byte("new\n"), func([]byte) error { return errors.New("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output validation failed")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
}

func TestAtomicWrite_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "report.json")
	require.NoError(t, AtomicWrite(path, []byte("{}\n"), nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(got))
}

func TestAtomicWrite_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := AtomicWrite(filepath.Join(blocker, "out.json"), []byte("x"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create directory")
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, filepath.Join(root, "a", "b.json"), Resolve(root, filepath.Join("a", "b.json")))

	abs := filepath.Join(t.TempDir(), "x.json")
	assert.Equal(t, abs, Resolve(root, abs))
}

func TestDisplay(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "spec", "catalog.json")
	assert.Equal(t, "spec/catalog.json", Display(root, inside))
	assert.Equal(t, ".", Display(root, root))

	outside := filepath.Join(t.TempDir(), "issues.json")
	assert.Equal(t, filepath.ToSlash(Canonical(outside)), Display(root, outside))
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.md"), []byte("# a\n"), 0o644))

	exists, regular := Inspect(root, "docs/a.md")
	assert.True(t, exists)
	assert.True(t, regular)

	exists, regular = Inspect(root, "docs")
	assert.True(t, exists)
	assert.False(t, regular)

	exists, _ = Inspect(root, "docs/missing.md")
	assert.False(t, exists)
}

func TestLockOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "reports", "gate.json")

	first, err := LockOutput(output)
	require.NoError(t, err)
	pid, err := os.ReadFile(output + ".lock")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(pid))

	_, err = LockOutput(output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output is locked by another watcher")

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())
	_, err = os.Stat(output + ".lock")
	assert.True(t, os.IsNotExist(err))

	second, err := LockOutput(output)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
