package toolchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
)

type versionRunner struct {
	outputs map[string]string
	calls   []string
}

func (r *versionRunner) Run(ctx context.Context, req framework.CommandRequest) (*framework.CommandResult, error) {
	r.calls = append(r.calls, req.String())
	out, ok := r.outputs[req.Args[0]]
	if !ok {
		return &framework.CommandResult{ExitCode: 127, Stderr: "not found"}, nil
	}
	return &framework.CommandResult{Stdout: out}, nil
}

func lookIn(names ...string) func(string) (string, error) {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("executable file not found")
	}
}

func TestProbePrefersPlatformVariant(t *testing.T) {
	runner := &versionRunner{outputs: map[string]string{"npm.cmd": "10.2.4\n", "npm": "9.0.0\n"}}
	p := New(runner, "windows", WithLookPath(lookIn("npm.cmd", "npm")))

	inv, ok := p.Probe(context.Background(), framework.ToolNPM)
	require.True(t, ok)
	require.Equal(t, "npm.cmd", inv.Name)
	require.Equal(t, "10.2.4", inv.Version.String())
}

func TestProbeFallsBackToGenericName(t *testing.T) {
	runner := &versionRunner{outputs: map[string]string{"npm": "9.0.0"}}
	p := New(runner, "windows", WithLookPath(lookIn("npm")))

	inv, ok := p.Probe(context.Background(), framework.ToolNPM)
	require.True(t, ok)
	require.Equal(t, "npm", inv.Name)
	require.Equal(t, []string{"npm.cmd", "npm"}, p.Candidates(framework.ToolNPM))
}

func TestProbeMissingToolIsNotAnError(t *testing.T) {
	p := New(&versionRunner{}, "linux", WithLookPath(lookIn()))
	_, ok := p.Probe(context.Background(), framework.ToolWasmPack)
	require.False(t, ok)
}

func TestProbeRejectsFailingVersionQuery(t *testing.T) {
	runner := &versionRunner{outputs: map[string]string{}}
	p := New(runner, "linux", WithLookPath(lookIn("jetcrab")))
	_, ok := p.Probe(context.Background(), framework.ToolJetCrab)
	require.False(t, ok)
	require.Equal(t, []string{"jetcrab --version"}, runner.calls)
}

func TestProbeMemoizesAnswers(t *testing.T) {
	runner := &versionRunner{outputs: map[string]string{"cargo": "cargo 1.75.0 (1d8b05cdd 2023-11-20)"}}
	p := New(runner, "linux", WithLookPath(lookIn("cargo")))

	for i := 0; i < 3; i++ {
		inv, ok := p.Probe(context.Background(), framework.ToolCargo)
		require.True(t, ok)
		require.Equal(t, "1.75.0", inv.Version.String())
	}
	require.Len(t, runner.calls, 1)
}

func TestProbeOverridesComeFirst(t *testing.T) {
	runner := &versionRunner{outputs: map[string]string{"/opt/node/bin/node": "v20.11.1"}}
	p := New(runner, "linux",
		WithLookPath(lookIn("/opt/node/bin/node", "node")),
		WithOverrides(map[string]string{"Node": "/opt/node/bin/node"}))

	inv, ok := p.Probe(context.Background(), framework.ToolNode)
	require.True(t, ok)
	require.Equal(t, "/opt/node/bin/node", inv.Name)
	require.Equal(t, "20.11.1", inv.Version.String())
}

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"v20.11.1":                            "20.11.1",
		"wasm-pack 0.12.1":                    "0.12.1",
		"cargo 1.75.0 (1d8b05cdd 2023-11-20)": "1.75.0",
		"jetcrab 0.4.0-beta.1":                "0.4.0-beta.1",
	}
	for line, want := range cases {
		v := ParseVersion(line)
		require.NotNil(t, v, line)
		require.Equal(t, want, v.String(), line)
	}
	require.Nil(t, ParseVersion("no version here"))
}

func TestMeetsRequirement(t *testing.T) {
	old := framework.Invocation{Tool: framework.ToolCargo, Version: ParseVersion("cargo 1.50.0")}
	require.False(t, MeetsRequirement(old))

	current := framework.Invocation{Tool: framework.ToolCargo, Version: ParseVersion("cargo 1.75.0")}
	require.True(t, MeetsRequirement(current))

	unknown := framework.Invocation{Tool: framework.ToolCargo}
	require.True(t, MeetsRequirement(unknown))

	unconstrained := framework.Invocation{Tool: framework.ToolNode, Version: ParseVersion("v1.0.0")}
	require.True(t, MeetsRequirement(unconstrained))
}
