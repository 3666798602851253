package workspacecfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "jetcrab", cfg.Runtime.Preferred)
	require.Equal(t, DefaultStagingDir, cfg.Bundle.StagingDir)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	body := "runtime:\n  preferred: node\nwatch:\n  debounce: 1s\n  ignore: [dist/**]\nbundle:\n  runtime_path: vendor/jetcrab\n"
	require.NoError(t, os.WriteFile(Path(root), []byte(body), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.True(t, cfg.PreferNode())
	require.Equal(t, time.Second, cfg.Watch.Debounce)
	require.Equal(t, []string{"dist/**"}, cfg.Watch.Ignore)
	require.Equal(t, DefaultStagingDir, cfg.Bundle.StagingDir)
	require.Equal(t, filepath.Join(root, "vendor", "jetcrab"), cfg.RuntimePath(root, nil))
}

func TestLoadRejectsUnknownRuntime(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("runtime:\n  preferred: deno\n"), 0o644))
	_, err := Load(root)
	require.ErrorContains(t, err, "runtime.preferred")
}

func TestLoadRejectsEscapingStagingDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("bundle:\n  staging_dir: ../outside\n"), 0o644))
	_, err := Load(root)
	require.Error(t, err)
}

func TestRuntimePathPrecedence(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	require.Equal(t, filepath.Join(root, "..", "jetcrab"), cfg.RuntimePath(root, nil))

	cfg.Bundle.RuntimePath = "/opt/jetcrab"
	require.Equal(t, "/opt/jetcrab", cfg.RuntimePath(root, nil))

	env := func(key string) string {
		if key == RuntimePathEnv {
			return "/env/jetcrab"
		}
		return ""
	}
	require.Equal(t, "/env/jetcrab", cfg.RuntimePath(root, env))
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("runtime:\n  prefered: node\n"), 0o644))
	_, err := Load(root)
	require.ErrorContains(t, err, "prefered")
}

func TestLoadAcceptsEmptyFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), nil, 0o644))
	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, DefaultStagingDir, cfg.Bundle.StagingDir)
}

func TestCheckStagingDir(t *testing.T) {
	for _, dir := range []string{".", "./", "src/..", "", "/tmp/stage", "../outside", "js", "src", "node_modules", "src/build/..", ".git"} {
		require.Error(t, CheckStagingDir(dir), dir)
	}
	for _, dir := range []string{".cpm-build", "..cache", "build/host", "dist/stage"} {
		require.NoError(t, CheckStagingDir(dir), dir)
	}
	require.Error(t, CheckStagingDir("app", "app/main.js"))
	require.NoError(t, CheckStagingDir("app", "lib/main.js"))
}

func TestLoadRejectsStagingDirOverProject(t *testing.T) {
	for _, dir := range []string{".", "./", "src/..", "js", "src"} {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(Path(root), []byte("bundle:\n  staging_dir: \""+dir+"\"\n"), 0o644))
		_, err := Load(root)
		require.Error(t, err, dir)
	}
}

func TestDocumentSetThenGet(t *testing.T) {
	root := t.TempDir()
	doc, err := Open(root)
	require.NoError(t, err)
	_, ok := doc.Get("runtime.preferred")
	require.False(t, ok)

	require.NoError(t, doc.Set("runtime.preferred", "node"))
	require.NoError(t, doc.Set("watch.debounce", "500ms"))
	require.NoError(t, doc.Set("watch.ignore", "[dist, tmp]"))
	require.NoError(t, doc.Save())

	cfg, err := Load(root)
	require.NoError(t, err)
	require.True(t, cfg.PreferNode())
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, []string{"dist", "tmp"}, cfg.Watch.Ignore)

	back, err := Open(root)
	require.NoError(t, err)
	value, ok := back.Get("watch.ignore")
	require.True(t, ok)
	require.Equal(t, "[dist, tmp]", Format(value))
}

func TestDocumentSetRejectsInvalidConfig(t *testing.T) {
	doc, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, doc.Set("bundle.output", "demo"))

	require.ErrorContains(t, doc.Set("runtime.preferred", "deno"), "runtime.preferred")
	require.Error(t, doc.Set("bundle.staging_dir", "."))
	require.Error(t, doc.Set("bundel.output", "x"))
	require.Error(t, doc.Set("watch..ignore", "x"))

	_, ok := doc.Get("runtime.preferred")
	require.False(t, ok)
	_, ok = doc.Get("bundel")
	require.False(t, ok)
	value, ok := doc.Get("bundle.output")
	require.True(t, ok)
	require.Equal(t, "demo", value)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "true", Format(true))
	require.Equal(t, "3", Format(3))
	require.Equal(t, "[a, b]", Format([]any{"a", "b"}))
	require.Equal(t, "preferred: node", Format(map[string]any{"preferred": "node"}))
}
