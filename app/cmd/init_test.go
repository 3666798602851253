package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
)

func TestInitWithoutNpmWritesManifest(t *testing.T) {
	h := newHarness(t)
	code, out := h.run("init", "demo", "-y", "--no-git")
	require.Equal(t, 0, code, out.Stderr.String())

	pkg := h.manifest("demo", framework.PackageJSON)
	name, _ := pkg.String("name")
	require.Equal(t, "demo", name)
	scripts := pkg.StringMap("scripts")
	require.Equal(t, "cpm dev", scripts["dev"])
	require.Equal(t, "cpm build", scripts["build"])
	require.Equal(t, "cpm test", scripts["test"])

	require.FileExists(t, h.path("demo/index.js"))
	require.Contains(t, h.read("demo/README.md"), "# demo - CPM JavaScript Project")
	require.Contains(t, h.read("demo/.gitignore"), "node_modules/")
	require.NoDirExists(t, h.path("demo/.git"))
	require.Contains(t, out.Stderr.String(), "npm not found")
	require.Contains(t, out.Stderr.String(), "JavaScript project initialized successfully!")
}

func TestInitDelegatesToNpm(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	h.runner.On("npm init", func(req framework.CommandRequest) (*framework.CommandResult, error) {
		pkg := `{"name": "demo", "version": "1.0.0", "keywords": [], "scripts": {"test": "echo \"Error: no test specified\" && exit 1", "lint": "eslint ."}}`
		return &framework.CommandResult{}, os.WriteFile(filepath.Join(req.Workdir, "package.json"), []byte(pkg), 0o644)
	})

	code, out := h.run("init", "demo", "-y")
	require.Equal(t, 0, code, out.Stderr.String())
	require.Equal(t, []string{"npm init -y"}, h.runner.Commands())
	require.Equal(t, h.path("demo"), h.runner.Requests[0].Workdir)
	require.Equal(t, framework.StdioCapture, h.runner.Requests[0].Stdio)

	pkg := h.manifest("demo", framework.PackageJSON)
	scripts := pkg.StringMap("scripts")
	require.Equal(t, "cpm test", scripts["test"])
	require.Equal(t, "eslint .", scripts["lint"])
	_, ok := pkg.Get("keywords")
	require.True(t, ok)
	require.DirExists(t, h.path("demo/.git"))
}

func TestInitInteractiveInheritsTerminal(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	h.runner.On("npm init", func(req framework.CommandRequest) (*framework.CommandResult, error) {
		return &framework.CommandResult{}, os.WriteFile(filepath.Join(req.Workdir, "package.json"), []byte(`{"name":"x"}`), 0o644)
	})
	code, _ := h.run("init", "--no-git")
	require.Equal(t, 0, code)
	require.Equal(t, []string{"npm init"}, h.runner.Commands())
	require.Equal(t, framework.StdioInherit, h.runner.Requests[0].Stdio)
	require.DirExists(t, h.path(DefaultProjectName))
}

func TestInitNpmFailure(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	h.runner.Fail("npm init", "EACCES")
	code, out := h.run("init", "demo", "-y")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Error: Command 'npm init' failed: EACCES")
}

func TestInitRefusesExistingDirectory(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	h.write("demo/notes.txt", "keep me")

	code, out := h.run("init", "demo", "-y")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Error: File already exists: demo")
	require.Empty(t, h.runner.Requests)

	entries, err := os.ReadDir(h.path("demo"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "keep me", h.read("demo/notes.txt"))
}
