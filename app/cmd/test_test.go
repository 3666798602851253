package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
)

func TestTestSkipsPlaceholderScript(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo","scripts":{"test":"echo \"Error: no test specified\" && exit 1"}}`)
	code, out := h.run("test")
	require.Equal(t, 0, code)
	require.Contains(t, out.Stderr.String(), "No test script found in package.json")
	require.Empty(t, h.runner.Requests)
}

func TestTestDoesNotRecurseIntoCpm(t *testing.T) {
	h := newHarness(t, framework.ToolNPM)
	scriptProject(h, `{"name":"demo","scripts":{"test":"cpm test"}}`)
	code, _ := h.run("test")
	require.Equal(t, 0, code)
	require.Empty(t, h.runner.Requests)
}

func TestTestHybridRunsBoth(t *testing.T) {
	h := newHarness(t, framework.ToolNPM, framework.ToolCargo)
	hybridProject(h)
	h.write("package.json", `{"name":"demo","scripts":{"test":"jest"}}`)
	code, out := h.run("test")
	require.Equal(t, 0, code, out.Stderr.String())
	require.Equal(t, []string{"npm test", "cargo test"}, h.runner.Commands())
}

func TestTestAbortsOnFirstFailure(t *testing.T) {
	h := newHarness(t, framework.ToolNPM, framework.ToolCargo)
	hybridProject(h)
	h.write("package.json", `{"name":"demo","scripts":{"test":"jest"}}`)
	h.runner.Fail("npm test", "1 failing")
	code, out := h.run("test")
	require.Equal(t, 1, code)
	require.Equal(t, []string{"npm test"}, h.runner.Commands())
	require.Contains(t, out.Stderr.String(), "Command 'npm test' failed: 1 failing")
}

func TestTestCargoFailure(t *testing.T) {
	h := newHarness(t, framework.ToolCargo)
	h.write("Cargo.toml", cargoInitOutput)
	h.runner.Fail("cargo test", "test result: FAILED")
	code, out := h.run("test")
	require.Equal(t, 1, code)
	require.Contains(t, out.Stderr.String(), "Command 'cargo test' failed")
}

func TestHasTestScript(t *testing.T) {
	require.False(t, hasTestScript(""))
	require.False(t, hasTestScript(`echo "Error: no test specified" && exit 1`))
	require.False(t, hasTestScript("cpm test"))
	require.False(t, hasTestScript("  cpm   test --verbose"))
	require.True(t, hasTestScript("jest --coverage"))
	require.True(t, hasTestScript("cpm-test-runner"))
}
