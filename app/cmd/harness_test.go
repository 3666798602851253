package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
	"github.com/jetcrabcollab/cpm/framework/frameworktest"
)

type harness struct {
	t      *testing.T
	root   string
	runner *frameworktest.Runner
	probe  *frameworktest.Probe
	env    map[string]string
}

func newHarness(t *testing.T, tools ...framework.Tool) *harness {
	t.Helper()
	return &harness{
		t:      t,
		root:   t.TempDir(),
		runner: frameworktest.NewRunner(),
		probe:  frameworktest.NewProbe(tools...),
		env:    map[string]string{},
	}
}

func (h *harness) path(rel string) string {
	return filepath.Join(h.root, filepath.FromSlash(rel))
}

func (h *harness) write(rel, content string) {
	h.t.Helper()
	p := h.path(rel)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(h.t, os.WriteFile(p, []byte(content), 0o644))
}

func (h *harness) read(rel string) string {
	h.t.Helper()
	data, err := os.ReadFile(h.path(rel))
	require.NoError(h.t, err)
	return string(data)
}

func (h *harness) manifest(rel string, kind framework.ManifestKind) *framework.Manifest {
	h.t.Helper()
	m, err := framework.LoadManifest(h.path(rel), kind)
	require.NoError(h.t, err)
	return m
}

func (h *harness) run(args ...string) (int, *frameworktest.Streams) {
	return h.runContext(context.Background(), "", args...)
}

func (h *harness) runWithInput(input string, args ...string) (int, *frameworktest.Streams) {
	return h.runContext(context.Background(), input, args...)
}

func (h *harness) runContext(ctx context.Context, input string, args ...string) (int, *frameworktest.Streams) {
	streams := frameworktest.NewStreams(input)
	env := frameworktest.Env(h.root, h.runner, h.probe, streams)
	env.Getenv = func(key string) string { return h.env[key] }
	code := NewApp(env).Run(ctx, args)
	return code, streams
}

func scriptProject(h *harness, pkg string) {
	h.write("package.json", pkg)
	h.write("index.js", "console.log('hi')\n")
}
