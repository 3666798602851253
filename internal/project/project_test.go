package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, Uninitialized, Classify(root))

	touch(t, root, "package.json")
	assert.Equal(t, ScriptOnly, Classify(root))

	touch(t, root, "Cargo.toml")
	assert.Equal(t, Hybrid, Classify(root))

	require.NoError(t, os.Remove(filepath.Join(root, "package.json")))
	assert.Equal(t, CompiledOnly, Classify(root))
}

func TestClassifyIgnoresDirectoriesNamedLikeManifests(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "package.json"), 0o755))
	assert.Equal(t, Uninitialized, Classify(root))
}

func TestResolveEntryPrefersJSDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "index.js")
	entry, err := ResolveEntry(root)
	require.NoError(t, err)
	assert.Equal(t, "index.js", entry)

	touch(t, root, filepath.Join("js", "index.js"))
	entry, err = ResolveEntry(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("js", "index.js"), entry)
}

func TestResolveEntryMissing(t *testing.T) {
	_, err := ResolveEntry(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, framework.ErrEntryPointNotFound))
	var fileErr *framework.FileOperationError
	require.ErrorAs(t, err, &fileErr)
}

func TestInspectRust(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "package.json")
	assert.Equal(t, RustNone, InspectRust(root).Status())

	touch(t, root, "Cargo.toml")
	assert.Equal(t, RustPartial, InspectRust(root).Status())

	touch(t, root, filepath.Join("src", "lib.rs"))
	layout := InspectRust(root)
	assert.Equal(t, RustFull, layout.Status())
	assert.True(t, layout.PackageJSON)
	assert.False(t, layout.PkgDir)
}
