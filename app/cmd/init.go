package cmd

import (
	"bytes"
	"context"
	"embed"
	"os"
	"path/filepath"
	"text/template"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/framework"
)

//go:embed templates
var scaffold embed.FS

var readmeTemplate = template.Must(template.ParseFS(scaffold, "templates/README.md.tmpl"))

// DefaultProjectName is used when init is called without a name.
const DefaultProjectName = "my-cpm-project"

// cpmScripts are added to every new package.json.
var cpmScripts = map[string]string{
	"dev":   "cpm dev",
	"build": "cpm build",
	"test":  "cpm test",
}

// InitCommand creates a new JavaScript project directory.
type InitCommand struct{}

func (InitCommand) Name() string { return "init" }

func (InitCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Initialize a new JavaScript project",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.Flags().BoolP("yes", "y", false, "Use default values without prompting")
	cmd.Flags().Bool("no-git", false, "Do not initialise a git repository")
	return cmd
}

func (InitCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	name := DefaultProjectName
	if len(args) == 1 && args[0] != "" {
		name = args[0]
	}
	dir := ec.Path(name)
	if _, err := os.Lstat(dir); err == nil {
		return &framework.FileExistsError{Path: name}
	}

	ec.Console.Step("Initializing CPM JavaScript project: %s", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &framework.FileOperationError{Operation: "create directory", Path: name, Message: err.Error(), Err: err}
	}

	ec.Console.Step("Setting up JavaScript project...")
	if err := npmInit(ctx, ec, dir, filepath.Base(dir), ec.Bool("yes")); err != nil {
		return err
	}
	pkg, err := framework.LoadManifest(dir, framework.PackageJSON)
	if err != nil {
		return err
	}
	scripts, _ := pkg.Get("scripts")
	table, ok := scripts.(map[string]any)
	if !ok {
		table = map[string]any{}
	}
	for k, v := range cpmScripts {
		table[k] = v
	}
	if err := pkg.SetAndSave(table, "scripts"); err != nil {
		return err
	}

	index, err := scaffold.ReadFile("templates/index.js")
	if err != nil {
		return &framework.InternalError{Message: err.Error()}
	}
	if err := writeFile(filepath.Join(dir, "index.js"), index, 0o644); err != nil {
		return err
	}
	var readme bytes.Buffer
	if err := readmeTemplate.Execute(&readme, map[string]string{"Name": name}); err != nil {
		return &framework.InternalError{Message: err.Error()}
	}
	if err := writeFile(filepath.Join(dir, "README.md"), readme.Bytes(), 0o644); err != nil {
		return err
	}
	ignore, err := scaffold.ReadFile("templates/gitignore")
	if err != nil {
		return &framework.InternalError{Message: err.Error()}
	}
	if err := writeFile(filepath.Join(dir, ".gitignore"), ignore, 0o644); err != nil {
		return err
	}

	if !ec.Bool("no-git") {
		if _, err := git.PlainInit(dir, false); err != nil {
			ec.Logger.Debug("git init failed", zap.String("dir", dir), zap.Error(err))
			ec.Console.Warn("Could not initialise a git repository: %v", err)
		}
	}

	ec.Console.Success("JavaScript project initialized successfully!")
	ec.Console.Hint("Run 'cd %s && cpm install' to install dependencies", name)
	ec.Console.Hint("Run 'cpm dev' to start development server")
	ec.Console.Hint("Run 'cpm add-rust' to add Rust later if needed")
	return nil
}

// npmInit creates package.json in dir with npm, or writes a minimal one when
// npm is not installed.
func npmInit(ctx context.Context, ec *framework.ExecutionContext, dir, name string, yes bool) error {
	inv, ok := ec.Lookup(ctx, framework.ToolNPM)
	if !ok {
		ec.Console.Warn("npm not found, writing a minimal package.json")
		pkg := framework.NewManifest(dir, framework.PackageJSON, map[string]any{
			"name":        name,
			"version":     "1.0.0",
			"description": "",
			"main":        "index.js",
			"license":     "ISC",
		})
		return pkg.Save()
	}
	args := []string{"init"}
	req := framework.CommandRequest{Workdir: dir, Stdio: framework.StdioInherit}
	if yes {
		args = append(args, "-y")
		req.Stdio = framework.StdioCapture
	}
	req.Args = inv.Command(args...)
	_, err := ec.Delegate(ctx, cliutils.Label(framework.ToolNPM, args...), req)
	return err
}
