package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/framework"
)

// WorkspaceMember is one package matched by the workspaces declaration.
type WorkspaceMember struct {
	Dir     string
	Name    string
	Version string
}

// WorkspaceCommand shows the npm workspaces of the project.
type WorkspaceCommand struct{}

func (WorkspaceCommand) Name() string { return "workspace" }

func (WorkspaceCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Show workspace information",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("list", "l", false, "List workspace members")
	return cmd
}

func (WorkspaceCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	pkg, err := cliutils.RequireManifest(ec.Root, framework.PackageJSON, "cpm init")
	if err != nil {
		return err
	}
	info, err := pkg.PackageInfo()
	if err != nil {
		return &framework.ManifestParseError{Path: pkg.Path, Err: err}
	}
	patterns := info.WorkspacePatterns()
	if len(patterns) == 0 {
		ec.Console.Println("No workspaces declared in package.json")
		return nil
	}
	members, err := ExpandWorkspaces(ec.Root, patterns)
	if err != nil {
		return err
	}
	ec.Logger.Debug("workspace members", zap.Strings("patterns", patterns), zap.Int("count", len(members)))

	if !ec.Bool("list") {
		ec.Console.Header("Workspaces")
		for _, p := range patterns {
			ec.Console.Println("   %s", p)
		}
		ec.Console.Println("%s found", plural(len(members), "member"))
		ec.Console.Hint("Run 'cpm workspace -l' to list them")
		return nil
	}
	for _, m := range members {
		fmt.Fprintf(ec.Stdout, "%s@%s (%s)\n", m.Name, m.Version, m.Dir)
	}
	return nil
}

// ExpandWorkspaces resolves workspace globs to directories holding a
// package.json. Patterns starting with "!" exclude matches.
func ExpandWorkspaces(root string, patterns []string) ([]WorkspaceMember, error) {
	fsys := os.DirFS(root)
	include := map[string]bool{}
	var exclude []string
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "./")
		if strings.HasPrefix(pattern, "!") {
			exclude = append(exclude, strings.TrimPrefix(pattern[1:], "./"))
			continue
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, &framework.FileOperationError{
				Operation: "expand workspace pattern",
				Path:      pattern,
				Message:   err.Error(),
				Err:       err,
			}
		}
		for _, m := range matches {
			include[m] = true
		}
	}

	var dirs []string
	for dir := range include {
		excluded := false
		for _, ex := range exclude {
			if ok, _ := doublestar.Match(ex, dir); ok {
				excluded = true
				break
			}
		}
		if excluded || !framework.ManifestExists(filepath.Join(root, filepath.FromSlash(dir)), framework.PackageJSON) {
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	members := make([]WorkspaceMember, 0, len(dirs))
	for _, dir := range dirs {
		m, err := framework.LoadManifest(filepath.Join(root, filepath.FromSlash(dir)), framework.PackageJSON)
		if err != nil {
			return nil, err
		}
		name, _ := m.String("name")
		if name == "" {
			name = path.Base(dir)
		}
		version, _ := m.String("version")
		if version == "" {
			version = "0.0.0"
		}
		members = append(members, WorkspaceMember{Dir: dir, Name: name, Version: version})
	}
	return members, nil
}
