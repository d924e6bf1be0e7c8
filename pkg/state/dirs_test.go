package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	paths, err := Init(root + "/")
	require.NoError(t, err)
	assert.Equal(t, root, paths.DB)

	for _, dir := range []string{paths.Store, paths.Tel, paths.Tmp} {
		fi, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "probe files are removed")
	}
}

func TestInitRejects(t *testing.T) {
	_, err := Init("  ")
	assert.Error(t, err)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "store"), nil, 0o600))
	_, err = Init(root)
	assert.Error(t, err)

	linked := t.TempDir()
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(linked, "store")))
	_, err = Init(linked)
	assert.Error(t, err)
}
