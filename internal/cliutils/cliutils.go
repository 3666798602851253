// Package cliutils holds helpers shared by the cpm command handlers: manifest
// preconditions, tool resolution and argument validation.
package cliutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/jetcrabcollab/cpm/framework"
)

// RequireManifest loads the manifest of kind or returns the "not in a
// project" error naming remedy.
func RequireManifest(root string, kind framework.ManifestKind, remedy string) (*framework.Manifest, error) {
	if !framework.ManifestExists(root, kind) {
		return nil, framework.NotInitialized(kind, remedy)
	}
	return framework.LoadManifest(root, kind)
}

// RequireScriptProject fails unless root holds a package.json.
func RequireScriptProject(root string) error {
	if !framework.ManifestExists(root, framework.PackageJSON) {
		return framework.NotInitialized(framework.PackageJSON, "cpm init")
	}
	return nil
}

// Resolve returns the probed invocation of tool, or its generic name when
// the probe cannot confirm it.
func Resolve(ctx context.Context, ec *framework.ExecutionContext, tool framework.Tool) framework.Invocation {
	if inv, ok := ec.Lookup(ctx, tool); ok {
		return inv
	}
	return framework.FallbackName(tool)
}

// Delegate runs tool with args in the project root, capturing output.
func Delegate(ctx context.Context, ec *framework.ExecutionContext, tool framework.Tool, args ...string) (*framework.CommandResult, error) {
	inv := Resolve(ctx, ec, tool)
	return ec.Delegate(ctx, Label(tool, args...), framework.CommandRequest{Args: inv.Command(args...)})
}

// Attach runs tool with args sharing the terminal with cpm.
func Attach(ctx context.Context, ec *framework.ExecutionContext, tool framework.Tool, args ...string) error {
	inv := Resolve(ctx, ec, tool)
	_, err := ec.Delegate(ctx, Label(tool, args...), framework.CommandRequest{
		Args:  inv.Command(args...),
		Stdio: framework.StdioInherit,
	})
	return err
}

// Label names an invocation in errors: the logical tool and its first
// subcommand.
func Label(tool framework.Tool, args ...string) string {
	if len(args) == 0 {
		return string(tool)
	}
	return string(tool) + " " + args[0]
}

// distTags are npm specifiers that are not version ranges.
var distTags = map[string]bool{"latest": true, "next": true, "beta": true, "canary": true}

// SplitPackageSpec separates "name@range" handling scoped names.
func SplitPackageSpec(spec string) (name, version string) {
	offset := 0
	if strings.HasPrefix(spec, "@") {
		offset = 1
	}
	i := strings.LastIndex(spec[offset:], "@")
	if i < 0 {
		return spec, ""
	}
	i += offset
	return spec[:i], spec[i+1:]
}

// ValidatePackageSpec rejects package arguments npm would choke on with a
// confusing error. Ranges are checked with semver; tags, paths and URLs are
// passed through.
func ValidatePackageSpec(spec string) error {
	name, version := SplitPackageSpec(strings.TrimSpace(spec))
	if name == "" || name == "@" || strings.HasSuffix(name, "/") {
		return &framework.FileOperationError{
			Operation: "parse package spec",
			Path:      spec,
			Message:   "missing package name",
		}
	}
	if version == "" || distTags[version] || !looksLikeRange(version) {
		return nil
	}
	if _, err := semver.NewConstraint(version); err != nil {
		return &framework.FileOperationError{
			Operation: "parse package spec",
			Path:      spec,
			Message:   fmt.Sprintf("invalid version range %q", version),
			Err:       err,
		}
	}
	return nil
}

func looksLikeRange(v string) bool {
	if strings.Contains(v, ":") || strings.Contains(v, "/") {
		return false
	}
	switch v[0] {
	case '^', '~', '<', '>', '=', '*':
		return true
	}
	return v[0] >= '0' && v[0] <= '9'
}

// Confirm prints prompt and reports whether the next line starts with y.
func Confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}
