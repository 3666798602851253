package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/framework"
)

// InstallCommand installs dependencies for every toolchain the project uses.
type InstallCommand struct{}

func (InstallCommand) Name() string { return "install" }

func (InstallCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install dependencies",
		Args:  cobra.NoArgs,
	}
}

func (InstallCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	kind, err := requireProject(ec)
	if err != nil {
		return err
	}
	ec.Console.Step("Installing dependencies...")
	if kind.HasScript() {
		ec.Console.Step("Installing JavaScript dependencies with npm...")
		if _, err := cliutils.Delegate(ctx, ec, framework.ToolNPM, "install"); err != nil {
			return err
		}
		ec.Console.Success("JavaScript dependencies installed!")
	}
	if kind.HasCompiled() {
		ec.Console.Step("Installing Rust dependencies with cargo...")
		if _, err := cliutils.Delegate(ctx, ec, framework.ToolCargo, "build"); err != nil {
			return err
		}
		ec.Console.Success("Rust dependencies installed!")
	}
	return nil
}

// AddCommand adds npm packages to package.json.
type AddCommand struct{}

func (AddCommand) Name() string { return "add" }

func (AddCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <packages...>",
		Short: "Add packages to the project",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().BoolP("dev", "D", false, "Save as a development dependency")
	return cmd
}

func (AddCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	if err := cliutils.RequireScriptProject(ec.Root); err != nil {
		return err
	}
	for _, spec := range args {
		if err := cliutils.ValidatePackageSpec(spec); err != nil {
			return err
		}
	}
	npmArgs := append([]string{"install"}, args...)
	kind := "dependencies"
	if ec.Bool("dev") {
		npmArgs = append(npmArgs, "--save-dev")
		kind = "dev dependencies"
	}
	ec.Console.Step("Adding %s: %s", kind, strings.Join(args, ", "))
	if _, err := cliutils.Delegate(ctx, ec, framework.ToolNPM, npmArgs...); err != nil {
		return err
	}
	ec.Console.Success("Added %s", plural(len(args), "package"))
	return nil
}

// RemoveCommand removes npm packages.
type RemoveCommand struct{}

func (RemoveCommand) Name() string { return "remove" }

func (RemoveCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <packages...>",
		Short: "Remove packages from the project",
		Args:  cobra.MinimumNArgs(1),
	}
}

func (RemoveCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	if err := cliutils.RequireScriptProject(ec.Root); err != nil {
		return err
	}
	ec.Console.Step("Removing %s", strings.Join(args, ", "))
	if _, err := cliutils.Delegate(ctx, ec, framework.ToolNPM, append([]string{"uninstall"}, args...)...); err != nil {
		return err
	}
	ec.Console.Success("Removed %s", plural(len(args), "package"))
	return nil
}

// LockCommand refreshes lockfiles without installing anything.
type LockCommand struct{}

func (LockCommand) Name() string { return "lock" }

func (LockCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Generate or update lockfiles",
		Args:  cobra.NoArgs,
	}
}

func (LockCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	kind, err := requireProject(ec)
	if err != nil {
		return err
	}
	if kind.HasScript() {
		ec.Console.Step("Updating package-lock.json...")
		if _, err := cliutils.Delegate(ctx, ec, framework.ToolNPM, "install", "--package-lock-only"); err != nil {
			return err
		}
	}
	if kind.HasCompiled() {
		ec.Console.Step("Updating Cargo.lock...")
		if _, err := cliutils.Delegate(ctx, ec, framework.ToolCargo, "generate-lockfile"); err != nil {
			return err
		}
	}
	ec.Console.Success("Lockfiles updated!")
	return nil
}

// PublishCommand publishes the package to the npm registry.
type PublishCommand struct{}

func (PublishCommand) Name() string { return "publish" }

func (PublishCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the package to the registry",
		Args:  cobra.NoArgs,
	}
}

func (PublishCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	pkg, err := cliutils.RequireManifest(ec.Root, framework.PackageJSON, "cpm init")
	if err != nil {
		return err
	}
	name, _ := pkg.String("name")
	version, _ := pkg.String("version")
	ec.Console.Step("Publishing %s@%s...", name, version)
	if err := cliutils.Attach(ctx, ec, framework.ToolNPM, "publish"); err != nil {
		return err
	}
	ec.Console.Success("Published %s@%s", name, version)
	return nil
}

// NpxCommand runs a package binary through npx.
type NpxCommand struct{}

func (NpxCommand) Name() string { return "npx" }

func (NpxCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "npx <package> [-- args...]",
		Short: "Execute packages using npx",
	}
}

func (NpxCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	if err := cliutils.RequireScriptProject(ec.Root); err != nil {
		return err
	}
	if len(args) == 0 {
		ec.Console.Warn("No package specified for npx")
		ec.Console.Hint("Usage: cpm npx <package> [-- args...]")
		return nil
	}
	ec.Console.Step("Executing %s with npx...", args[0])
	return cliutils.Attach(ctx, ec, framework.ToolNPX, args...)
}
