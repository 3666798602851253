package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
)

func TestInstallHybridRunsBothToolchains(t *testing.T) {
	h := newHarness(t, framework.ToolNPM, framework.ToolCargo)
	hybridProject(h)
	code, out := h.run("install")
	require.Equal(t, 0, code, out.Stderr.String())
	require.Equal(t, []string{"npm install", "cargo build"}, h.runner.Commands())
	require.Contains(t, out.Stderr.String(), "Rust dependencies installed!")
}

func TestInstallAbortsOnFirstFailure(t *testing.T) {
	h := newHarness(t, framework.ToolNPM, framework.ToolCargo)
	hybridProject(h)
	h.runner.Fail("npm install", "npm ERR! network")
	code, out := h.run("install")
	require.Equal(t, 1, code)
	require.Equal(t, []string{"npm install"}, h.runner.Commands())
	require.Contains(t, out.Stderr.String(), "Error: Command 'npm install' failed: npm ERR! network")
}

func TestInstallCompiledOnly(t *testing.T) {
	h := newHarness(t, framework.ToolCargo)
	h.write("Cargo.toml", cargoInitOutput)
	h.runner.Fail("cargo build", "error[E0425]")
	code, out := h.run("install")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Command 'cargo build' failed")
}

func TestAddPassesPackages(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo"}`)
	code, out := h.run("add", "lodash@^4.17.0", "@types/node", "-D")
	require.Equal(t, 0, code, out.Stderr.String())
	require.Equal(t, []string{"npm install lodash@^4.17.0 @types/node --save-dev"}, h.runner.Commands())
	require.Contains(t, out.Stderr.String(), "Added 2 packages")
}

func TestAddRejectsInvalidRange(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo"}`)
	code, out := h.run("add", "lodash@^4..x")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "invalid version range")
	require.Empty(t, h.runner.Requests)
}

func TestAddRequiresPackage(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo"}`)
	code, _ := h.run("add")
	require.Equal(t, 1, code)
	require.Empty(t, h.runner.Requests)
}

func TestRemoveUninstalls(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo"}`)
	code, _ := h.run("remove", "lodash", "react")
	require.Equal(t, 0, code)
	require.Equal(t, []string{"npm uninstall lodash react"}, h.runner.Commands())
}

func TestLockHybrid(t *testing.T) {
	h := newHarness(t, framework.ToolNPM, framework.ToolCargo)
	hybridProject(h)
	code, _ := h.run("lock")
	require.Equal(t, 0, code)
	require.Equal(t, []string{"npm install --package-lock-only", "cargo generate-lockfile"}, h.runner.Commands())
}

func TestPublishFailure(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo","version":"1.0.0"}`)
	h.runner.Fail("npm publish", "403 Forbidden")
	code, out := h.run("publish")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Publishing demo@1.0.0")
	require.Contains(t, out.Stderr.String(), "Command 'npm publish' failed: 403 Forbidden")
	require.Equal(t, framework.StdioInherit, h.runner.Requests[0].Stdio)
}

func TestNpxPassesArguments(t *testing.T) {
	h := newHarness(t, framework.ToolNPX)
	scriptProject(h, `{"name":"demo"}`)
	code, out := h.run("npx", "cowsay", "--", "-f", "dragon", "hi")
	require.Equal(t, 0, code, out.Stderr.String())
	require.Equal(t, []string{"npx cowsay -f dragon hi"}, h.runner.Commands())
	require.Equal(t, framework.StdioInherit, h.runner.Requests[0].Stdio)
}

func TestNpxWithoutPackage(t *testing.T) {
	h := newHarness(t, framework.ToolNPX)
	scriptProject(h, `{"name":"demo"}`)
	code, out := h.run("npx")
	require.Equal(t, 0, code)
	require.Contains(t, out.Stderr.String(), "No package specified for npx")
	require.Empty(t, h.runner.Requests)
}

func TestNpxFailure(t *testing.T) {
	h := newHarness(t, framework.ToolNPX)
	scriptProject(h, `{"name":"demo"}`)
	h.runner.On("npx", func(framework.CommandRequest) (*framework.CommandResult, error) {
		return &framework.CommandResult{ExitCode: 2}, nil
	})
	code, out := h.run("npx", "eslint")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Command 'npx eslint' failed: exit status 2")
}
