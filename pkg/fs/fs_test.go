package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "file")

	t.Run("DirIsNotAFile", func(t *testing.T) {
		assert.False(t, FileExists(tmpDir))
	})

	t.Run("FileExists", func(t *testing.T) {
		err := os.WriteFile(tmpFile, []byte{}, 0600)
		assert.NoError(t, err)
		assert.True(t, FileExists(tmpFile))
	})

	t.Run("FileDoesntExist", func(t *testing.T) {
		noFile := filepath.Join(tmpFile, "foo/bar/baz")
		assert.False(t, FileExists(noFile))
	})
}

func TestPathExists(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "file")

	t.Run("DirExists", func(t *testing.T) {
		assert.True(t, PathExists(tmpDir))
	})

	t.Run("FileExists", func(t *testing.T) {
		err := os.WriteFile(tmpFile, []byte{}, 0600)
		assert.NoError(t, err)
		assert.True(t, PathExists(tmpFile))
	})

	t.Run("DirDoesntExist", func(t *testing.T) {
		noDir := filepath.Join(tmpDir, "foo/bar/baz")
		assert.False(t, PathExists(noDir))
	})
}

func TestCleanJoin(t *testing.T) {
	t.Run("SimpleMember", func(t *testing.T) {
		path, err := CleanJoin("/cache/entry", "gitleaks")
		assert.NoError(t, err)
		assert.Equal(t, "/cache/entry/gitleaks", path)
	})

	t.Run("NestedMember", func(t *testing.T) {
		path, err := CleanJoin("/cache/entry", "sub/dir/file")
		assert.NoError(t, err)
		assert.Equal(t, "/cache/entry/sub/dir/file", path)
	})

	t.Run("TraversalRejected", func(t *testing.T) {
		_, err := CleanJoin("/cache/entry", "../../etc/passwd")
		assert.Error(t, err)
	})

	t.Run("PrefixEscapeRejected", func(t *testing.T) {
		_, err := CleanJoin("/cache/entry", "..")
		assert.Error(t, err)
	})
}

func TestContainedBy(t *testing.T) {
	assert.True(t, ContainedBy("/workspace/gitleaks.toml", "/workspace"))
	assert.True(t, ContainedBy("/workspace", "/workspace"))
	assert.False(t, ContainedBy("/workspace/../etc/passwd", "/workspace"))
	assert.False(t, ContainedBy("/workspaces/other", "/workspace"))
}
