package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/internal/project"
	"github.com/jetcrabcollab/cpm/framework"
)

// wasmCrates are merged into [dependencies] by add-rust.
var wasmCrates = map[string]string{
	"wasm-bindgen":       "0.2",
	"serde":              "1.0",
	"serde-wasm-bindgen": "0.6",
	"web-sys":            "0.3",
}

const (
	wasmPackage      = "wasm-bindgen"
	wasmPackageRange = "^0.2"
)

// AddRustCommand turns a JavaScript project into a hybrid one with a
// WebAssembly crate.
type AddRustCommand struct{}

func (AddRustCommand) Name() string { return "add-rust" }

func (AddRustCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-rust",
		Short: "Add Rust to an existing JavaScript project",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("yes", "y", false, "Use default values without prompting")
	return cmd
}

func (AddRustCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	pkg, err := cliutils.RequireManifest(ec.Root, framework.PackageJSON, "cpm init")
	if err != nil {
		return err
	}
	if framework.ManifestExists(ec.Root, framework.CargoTOML) {
		ec.Console.Warn("Rust is already added to this project!")
		ec.Console.Hint("Run 'cpm rust-status' to check the current status")
		return nil
	}

	ec.Console.Step("Adding Rust to JavaScript project...")
	crate := crateName(pkg)
	if _, err := cliutils.Delegate(ctx, ec, framework.ToolCargo, "init", "--name", crate, "--lib"); err != nil {
		return err
	}

	cargo, err := framework.LoadManifest(ec.Root, framework.CargoTOML)
	if err != nil {
		return err
	}
	cargo.Set([]any{"cdylib"}, "lib", "crate-type")
	for dep, version := range wasmCrates {
		if _, ok := cargo.Get("dependencies", dep); !ok {
			cargo.Set(version, "dependencies", dep)
		}
	}
	if err := cargo.Save(); err != nil {
		return err
	}

	lib, err := scaffold.ReadFile("templates/lib.rs")
	if err != nil {
		return &framework.InternalError{Message: err.Error()}
	}
	if err := writeFile(ec.Path("src", "lib.rs"), lib, 0o644); err != nil {
		return err
	}
	if err := os.MkdirAll(ec.Path("pkg"), 0o755); err != nil {
		return &framework.FileOperationError{Operation: "create directory", Path: "pkg", Message: err.Error(), Err: err}
	}
	if err := pkg.SetAndSave(wasmPackageRange, "dependencies", wasmPackage); err != nil {
		return err
	}

	ec.Console.Success("Rust added to project successfully!")
	ec.Console.Hint("Run 'cpm build' to compile Rust to WASM")
	ec.Console.Hint("Run 'cpm dev' to start development server")
	ec.Console.Hint("Check 'src/lib.rs' for Rust code examples")
	return nil
}

// crateName derives a cargo package name from package.json.
func crateName(pkg *framework.Manifest) string {
	name, _ := pkg.String("name")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "my-project"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// RemoveRustCommand strips the Rust half of a hybrid project.
type RemoveRustCommand struct{}

func (RemoveRustCommand) Name() string { return "remove-rust" }

func (RemoveRustCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-rust",
		Short: "Remove Rust from a project",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("yes", "y", false, "Remove without prompting")
	return cmd
}

func (RemoveRustCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	if !framework.ManifestExists(ec.Root, framework.CargoTOML) {
		ec.Console.Warn("No Rust found in this project!")
		return nil
	}
	if !ec.Bool("yes") {
		ec.Console.Warn("This will remove all Rust files and dependencies!")
		for _, item := range []string{"Cargo.toml", "src/ directory", "pkg/ directory", "Rust dependencies from package.json"} {
			ec.Console.Println("   - %s", item)
		}
		if !cliutils.Confirm(ec.Stdin, ec.Stderr, "   Continue? (y/N): ") {
			ec.Console.Println("Operation cancelled")
			return nil
		}
	}

	ec.Console.Step("Removing Rust from project...")
	for _, rel := range []string{"Cargo.toml", "Cargo.lock", "src", "pkg"} {
		if _, err := removePath(ec.Path(rel)); err != nil {
			return err
		}
	}
	if framework.ManifestExists(ec.Root, framework.PackageJSON) {
		pkg, err := framework.LoadManifest(ec.Root, framework.PackageJSON)
		if err != nil {
			return err
		}
		if pkg.Delete("dependencies", wasmPackage) {
			if err := pkg.Save(); err != nil {
				return err
			}
		}
	}

	ec.Console.Success("Rust removed from project successfully!")
	ec.Console.Hint("Project is now JavaScript-only")
	return nil
}

// RustStatusCommand reports how far Rust is integrated.
type RustStatusCommand struct{}

func (RustStatusCommand) Name() string { return "rust-status" }

func (RustStatusCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "rust-status",
		Short: "Check Rust status in the current project",
		Args:  cobra.NoArgs,
	}
}

func (RustStatusCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	ec.Console.Step("Checking Rust status in current project...")
	layout := project.InspectRust(ec.Root)
	if !layout.PackageJSON {
		ec.Console.Warn("Not in a JavaScript project")
		ec.Console.Hint("Run 'cpm init' to create a new project")
		return nil
	}

	ec.Console.Header("Project Structure")
	rows := []struct {
		label string
		ok    bool
	}{
		{"package.json", layout.PackageJSON},
		{"Cargo.toml", layout.CargoToml},
		{"src/ directory", layout.SrcDir},
		{"src/lib.rs", layout.LibRs},
		{"pkg/ directory", layout.PkgDir},
	}
	for _, row := range rows {
		ec.Console.Println("   %s: %s", row.label, ec.Console.Check(row.ok))
	}

	switch layout.Status() {
	case project.RustFull:
		ec.Console.Success("Rust is fully integrated!")
		ec.Console.Hint("Run 'cpm build' to compile Rust to WASM")
		ec.Console.Hint("Run 'cpm dev' to start development server")
	case project.RustPartial:
		ec.Console.Warn("Rust is partially integrated")
		ec.Console.Hint("Run 'cpm add-rust' to complete the setup")
	default:
		ec.Console.Println("JavaScript-only project")
		ec.Console.Hint("Run 'cpm add-rust' to add Rust if needed")
	}
	return nil
}
