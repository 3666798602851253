package cliutils

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetcrabcollab/cpm/framework"
	"github.com/jetcrabcollab/cpm/framework/frameworktest"
)

func TestRequireManifestMissing(t *testing.T) {
	_, err := RequireManifest(t.TempDir(), framework.CargoTOML, "cpm add-rust")
	var fileErr *framework.FileOperationError
	require.True(t, errors.As(err, &fileErr))
	require.Equal(t, "Cargo.toml", fileErr.Path)
	require.Contains(t, fileErr.Message, "cpm add-rust")
	require.ErrorIs(t, err, framework.ErrManifestNotFound)
}

func TestRequireManifestLoads(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"demo"}`), 0o644))
	m, err := RequireManifest(root, framework.PackageJSON, "cpm init")
	require.NoError(t, err)
	name, ok := m.String("name")
	require.True(t, ok)
	require.Equal(t, "demo", name)
	require.NoError(t, RequireScriptProject(root))
}

func TestResolveFallsBackToGenericName(t *testing.T) {
	ec := frameworktest.Context(t.TempDir(), frameworktest.NewRunner(), frameworktest.NewProbe(), frameworktest.NewStreams(""))
	inv := Resolve(context.Background(), ec, framework.ToolNPM)
	require.Equal(t, "npm", inv.Name)
}

func TestDelegateWrapsFailure(t *testing.T) {
	runner := frameworktest.NewRunner().Fail("npm publish", "403 Forbidden")
	ec := frameworktest.Context(t.TempDir(), runner, frameworktest.NewProbe(framework.ToolNPM), frameworktest.NewStreams(""))

	_, err := Delegate(context.Background(), ec, framework.ToolNPM, "publish")
	var extErr *framework.ExternalCommandError
	require.True(t, errors.As(err, &extErr))
	require.Equal(t, "npm publish", extErr.Command)
	require.Equal(t, "403 Forbidden", extErr.Message)
}

func TestAttachInheritsStdio(t *testing.T) {
	runner := frameworktest.NewRunner()
	streams := frameworktest.NewStreams("")
	ec := frameworktest.Context(t.TempDir(), runner, nil, streams)

	require.NoError(t, Attach(context.Background(), ec, framework.ToolNPX, "cowsay", "moo"))
	require.Len(t, runner.Requests, 1)
	req := runner.Requests[0]
	require.Equal(t, framework.StdioInherit, req.Stdio)
	require.Equal(t, []string{"npx", "cowsay", "moo"}, req.Args)
	require.Equal(t, streams.Stdout, req.Stdout)
}

func TestSplitPackageSpec(t *testing.T) {
	cases := map[string][2]string{
		"lodash":              {"lodash", ""},
		"lodash@^4.17.0":      {"lodash", "^4.17.0"},
		"@types/node":         {"@types/node", ""},
		"@types/node@>=18 <21": {"@types/node", ">=18 <21"},
	}
	for spec, want := range cases {
		name, version := SplitPackageSpec(spec)
		require.Equal(t, want[0], name, spec)
		require.Equal(t, want[1], version, spec)
	}
}

func TestValidatePackageSpec(t *testing.T) {
	for _, ok := range []string{"lodash", "lodash@^4.17.0", "react@latest", "@scope/pkg@~1.2", "left-pad@github:user/repo", "x@*"} {
		require.NoError(t, ValidatePackageSpec(ok), ok)
	}
	for _, bad := range []string{"lodash@^4..x", "@", "@scope/", "react@>=abc"} {
		require.Error(t, ValidatePackageSpec(bad), bad)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	require.True(t, Confirm(strings.NewReader("yes\n"), &out, "Continue? (y/N): "))
	require.Equal(t, "Continue? (y/N): ", out.String())
	require.False(t, Confirm(strings.NewReader("\n"), &out, ""))
	require.False(t, Confirm(strings.NewReader(""), &out, ""))
	require.True(t, Confirm(strings.NewReader("Y"), &out, ""))
}
