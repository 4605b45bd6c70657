package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
}

func TestExtensionSet(t *testing.T) {
	set := NewExtensionSet("txt", ".MD", " .json ", "", ".txt")
	assert.Equal(t, []string{".json", ".md", ".txt"}, set.List())
	assert.True(t, set.Allows("notes.TXT"))
	assert.True(t, set.Allows("/a/b/readme.md"))
	assert.False(t, set.Allows("report.pdf"))
	assert.False(t, set.Allows("Makefile"))

	empty := NewExtensionSet()
	assert.True(t, empty.Allows("anything.bin"))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, "b.pdf"))
	writeFile(t, filepath.Join(dir, ".hidden.txt"))
	writeFile(t, filepath.Join(dir, "nested", "c.md"))

	t.Run("directory is not recursive", func(t *testing.T) {
		files, err := Collect(&UploadOpts{Paths: []string{dir}, FileExtensions: []string{".txt", ".md"}})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, files)
	})

	t.Run("recursive directory", func(t *testing.T) {
		files, err := Collect(&UploadOpts{Paths: []string{dir + "/..."}, FileExtensions: []string{".txt", ".md"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "nested", "c.md")}, files)
	})

	t.Run("duplicates are collected once", func(t *testing.T) {
		path := filepath.Join(dir, "a.txt")
		files, err := Collect(&UploadOpts{Paths: []string{path, path}})
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("cannot recurse on a file", func(t *testing.T) {
		_, err := Collect(&UploadOpts{Paths: []string{filepath.Join(dir, "a.txt") + "/..."}})
		require.Error(t, err)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Collect(&UploadOpts{Paths: []string{filepath.Join(dir, "missing.txt")}})
		require.Error(t, err)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docs", "a.txt"), expanded)

	unchanged, err := ExpandPath("/tmp/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.txt", unchanged)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	writeFile(t, path)
	ok, err = Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(dir)
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")

	sub := filepath.Join(dir, "sub", "dir")
	require.NoError(t, CreateDirectoryIfNotExist(sub))
	ok, err = DirectoryExists(sub)
	require.NoError(t, err)
	assert.True(t, ok)
}
