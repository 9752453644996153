// Package local_test tests the local filesystem store.
package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/anp-fuel-report/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesBaseDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "plain")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		_, err := local.New(local.Config{BaseDir: tempDir})
		assert.Error(t, err)
		// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
		require.NoError(t, os.Chmod(tempDir, 0o700))
	})
}

func TestWriteAndExists(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	locator := "dados_glp/precos-glp-2024-01.csv"
	exists, err := store.Exists(ctx, locator)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Write(ctx, locator, []byte("a;b\n1;2\n")))

	exists, err = store.Exists(ctx, locator)
	require.NoError(t, err)
	assert.True(t, exists)

	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(filepath.Join(tempDir, "dados_glp", "precos-glp-2024-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(data))

	entries, err := os.ReadDir(filepath.Join(tempDir, "dados_glp"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestExistsIgnoresDirectories(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir.csv"), 0o750))

	exists, err := store.Exists(context.Background(), "dir.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	err = store.Write(context.Background(), "../escape.csv", []byte("x"))
	assert.ErrorContains(t, err, "path traversal")

	err = store.Write(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}

func TestWriteCanceledContext(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, store.Write(ctx, "a.csv", []byte("x")))
}

func TestListAndOpen(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "ge/b.csv", []byte("second")))
	require.NoError(t, store.Write(ctx, "ge/a.CSV", []byte("first")))
	require.NoError(t, store.Write(ctx, "ge/notes.txt", []byte("skip")))
	require.NoError(t, store.Write(ctx, "ge/nested/c.csv", []byte("skip")))

	locators, err := store.List(ctx, "ge", ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"ge/b.csv"}, locators, "extension match is case-sensitive")

	rc, err := store.Open(ctx, locators[0])
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck // test reader
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	missing, err := store.List(ctx, "nope", ".csv")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestURI(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	absDir, err := filepath.Abs(tempDir)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(absDir, "graficos", "1.png"), store.URI("graficos/1.png"))
}
