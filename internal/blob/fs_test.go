package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStore(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, store.Driver())
	runStoreContract(t, store)

	_, err = store.PresignURL(context.Background(), "k", SignedURLOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFilesystemWritesSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	require.NoError(t, err)

	info, err := store.Put(context.Background(), "exports/e1/a.dot", strings.NewReader("digraph {}"), PutOptions{ContentType: "text/vnd.graphviz"})
	require.NoError(t, err)
	assert.Len(t, info.ETag, 64)

	data, err := os.ReadFile(filepath.Join(root, "exports", "e1", "a.dot"))
	require.NoError(t, err)
	assert.Equal(t, "digraph {}", string(data))
	_, err = os.Stat(filepath.Join(root, "exports", "e1", "a.dot.meta"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "exports", "e1"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staging files left behind")
}

func TestFilesystemRejectsUnsafeKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape", "/etc/passwd", "x.meta"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}
