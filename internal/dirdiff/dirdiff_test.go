package dirdiff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (slash-relative path -> content) under a fresh
// temp root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o640))
	}
	return root
}

func TestDiff_AddedModifiedDeleted(t *testing.T) {
	oldRoot := writeTree(t, map[string]string{
		"f1": "x",
		"f2": "y",
	})
	newRoot := writeTree(t, map[string]string{
		"f1": "x",
		"f2": "z",
		"f3": "w",
	})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)

	assert.Equal(t, []string{"f3"}, result.Added)
	assert.Empty(t, result.Deleted)
	assert.Equal(t, []string{"f2"}, result.Modified)
	assert.False(t, result.Empty())
}

func TestDiff_DeletedOnly(t *testing.T) {
	oldRoot := writeTree(t, map[string]string{"gone.txt": "bye", "kept.txt": "hi"})
	newRoot := writeTree(t, map[string]string{"kept.txt": "hi"})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)

	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"gone.txt"}, result.Deleted)
	assert.Empty(t, result.Modified)
}

func TestDiff_IdenticalTreesAreEmpty(t *testing.T) {
	files := map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "beta",
		"sub/c/d.txt": "delta",
	}
	result, err := Diff(writeTree(t, files), writeTree(t, files))
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestDiff_SameSizeDifferentContentIsModified(t *testing.T) {
	// equal lengths force the digest comparison
	oldRoot := writeTree(t, map[string]string{"f.bin": "aaaa"})
	newRoot := writeTree(t, map[string]string{"f.bin": "aaab"})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"f.bin"}, result.Modified)
}

func TestDiff_NestedPathsCompared(t *testing.T) {
	oldRoot := writeTree(t, map[string]string{"a/b/c/deep.txt": "one"})
	newRoot := writeTree(t, map[string]string{"a/b/c/deep.txt": "two", "a/new.txt": "n"})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/new.txt"}, result.Added)
	assert.Equal(t, []string{"a/b/c/deep.txt"}, result.Modified)
}

func TestDiff_PathsAreCaseSensitive(t *testing.T) {
	// Readme.md and readme.md are distinct paths: one added, one deleted.
	oldRoot := writeTree(t, map[string]string{"readme.md": "hello"})
	newRoot := writeTree(t, map[string]string{"Readme.md": "hello"})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"Readme.md"}, result.Added)
	assert.Equal(t, []string{"readme.md"}, result.Deleted)
	assert.Empty(t, result.Modified)
}

func TestDiff_MissingRootFails(t *testing.T) {
	_, err := Diff(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	assert.Error(t, err)
}

func TestDiff_ResultsAreSorted(t *testing.T) {
	oldRoot := writeTree(t, nil)
	newRoot := writeTree(t, map[string]string{"z.txt": "z", "a.txt": "a", "m.txt": "m"})

	result, err := Diff(newRoot, oldRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "m.txt", "z.txt"}, result.Added)
}
