package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/bundle"
	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/internal/toolchain"
	"github.com/jetcrabcollab/cpm/framework"
)

// wasmPackArgs post-process a compiled crate into pkg/ for the browser.
var wasmPackArgs = []string{"build", "--release", "--target", "web", "--out-dir", "pkg"}

// BuildCommand builds the Rust crate, or bundles a JavaScript project into a
// standalone executable.
type BuildCommand struct{}

func (BuildCommand) Name() string { return "build" }

func (BuildCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project",
		Long: "Build the project. Projects with a Cargo.toml are compiled with cargo (and wasm-pack\n" +
			"when installed). JavaScript projects are bundled into a standalone executable.",
		Args: cobra.NoArgs,
	}
	cmd.Flags().Bool("standalone", false, "Bundle the JavaScript entry point even when Cargo.toml exists")
	cmd.Flags().Bool("release", false, "Build the Rust crate in release mode")
	cmd.Flags().StringP("output", "o", "", "File name of the standalone executable")
	return cmd
}

func (BuildCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	kind, err := requireProject(ec)
	if err != nil {
		return err
	}
	ec.Console.Step("Building project...")
	if kind.HasCompiled() && !ec.Bool("standalone") {
		return buildCrate(ctx, ec)
	}
	return buildStandalone(ctx, ec)
}

func buildCrate(ctx context.Context, ec *framework.ExecutionContext) error {
	ec.Console.Step("Building Rust project...")
	args := []string{"build"}
	if ec.Bool("release") {
		args = append(args, "--release")
	}
	if _, err := cliutils.Delegate(ctx, ec, framework.ToolCargo, args...); err != nil {
		return err
	}
	if inv, ok := ec.Lookup(ctx, framework.ToolWasmPack); ok {
		ec.Console.Step("Building WebAssembly...")
		if _, err := ec.Delegate(ctx, cliutils.Label(framework.ToolWasmPack, wasmPackArgs...), framework.CommandRequest{
			Args: inv.Command(wasmPackArgs...),
		}); err != nil {
			ec.Console.Warn("WASM build failed, but continuing...")
			ec.Console.Println("   %v", err)
		} else {
			ec.Console.Success("WebAssembly built successfully!")
		}
	}
	ec.Console.Success("Rust project built!")
	return nil
}

func buildStandalone(ctx context.Context, ec *framework.ExecutionContext) error {
	cfg, err := loadConfig(ec)
	if err != nil {
		return err
	}
	if inv, ok := ec.Lookup(ctx, framework.ToolCargo); ok && !toolchain.MeetsRequirement(inv) {
		req, _ := toolchain.Requirement(framework.ToolCargo)
		ec.Console.Warn("cargo %s is older than required (%s); the standalone build may fail", inv.Version, req)
	}
	output, _ := ec.Flags.GetString("output")
	if output == "" {
		output = cfg.Bundle.Output
	}
	artifact, err := bundle.Run(ctx, ec, bundle.Options{
		Output:      output,
		StagingDir:  cfg.Bundle.StagingDir,
		RuntimePath: cfg.RuntimePath(ec.Root, ec.Getenv),
	})
	if err != nil {
		return err
	}
	ec.Console.Success("Standalone executable created: %s", filepath.Base(artifact))
	ec.Console.Hint("Build files kept in %s for inspection", cfg.Bundle.StagingDir)
	return nil
}
