// Package bundle embeds a script project's entry point into a natively
// compiled host program so the project ships as a single executable.
//
// The pipeline assembles a throwaway crate in a staging directory, asks cargo
// to build it in release mode and copies the produced binary into the project
// root. The staging directory is kept afterwards so failed or surprising
// builds can be inspected.
package bundle

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/jetcrabcollab/cpm/internal/project"
	"github.com/jetcrabcollab/cpm/internal/workspacecfg"
	"github.com/jetcrabcollab/cpm/framework"
)

const (
	// HostPackage is the crate name of the generated host program, and so the
	// name of the binary cargo produces.
	HostPackage = "standalone-app"
	// EntryFileName is the name the entry script gets inside the host crate.
	EntryFileName = "app.js"
	// DefaultOutputName is used when package.json has no usable name.
	DefaultOutputName = "standalone-app"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("bundle").Funcs(template.FuncMap{
	"quote": func(s string) string { return strconv.Quote(filepath.ToSlash(s)) },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Options tune a standalone build. Zero values select the defaults.
type Options struct {
	// Output overrides the file name derived from package.json.
	Output string
	// StagingDir is relative to the project root.
	StagingDir string
	// RuntimePath locates the embeddable runtime crate.
	RuntimePath string
}

// Plan is everything a single standalone build needs to know. It only lives
// for the duration of Run.
type Plan struct {
	Root        string
	Entry       string
	OutputName  string
	StagingDir  string
	RuntimePath string
	Windows     bool
}

// BinaryPath is where cargo leaves the release binary of the host crate.
func (p Plan) BinaryPath() string {
	name := HostPackage
	if p.Windows {
		name += ".exe"
	}
	return filepath.Join(p.StagingDir, "target", "release", name)
}

// OutputPath is the final location of the bundled executable.
func (p Plan) OutputPath() string {
	return filepath.Join(p.Root, p.OutputName)
}

// DeriveOutputName picks the artifact name: override, then the package.json
// name (scope stripped), then DefaultOutputName, with .exe on windows.
func DeriveOutputName(root, override string, windows bool) string {
	name := strings.TrimSpace(override)
	if name == "" {
		if m, err := framework.LoadManifest(root, framework.PackageJSON); err == nil {
			name, _ = m.String("name")
		}
	}
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		name = DefaultOutputName
	}
	if windows && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return name
}

// NewPlan resolves the entry script and output name for root. It fails with
// an EntryPointNotFound error when the project has no entry script.
func NewPlan(root string, opts Options, windows bool) (Plan, error) {
	entry, err := project.ResolveEntry(root)
	if err != nil {
		return Plan{}, err
	}
	staging := opts.StagingDir
	if staging == "" {
		staging = workspacecfg.DefaultStagingDir
	}
	runtimePath := opts.RuntimePath
	if runtimePath == "" {
		runtimePath = filepath.Join(root, "..", "jetcrab")
	}
	if abs, err := filepath.Abs(runtimePath); err == nil {
		runtimePath = abs
	}
	return Plan{
		Root:        root,
		Entry:       entry,
		OutputName:  DeriveOutputName(root, opts.Output, windows),
		StagingDir:  filepath.Join(root, staging),
		RuntimePath: runtimePath,
		Windows:     windows,
	}, nil
}

// Prepare recreates the staging directory and writes the host crate: the
// copied entry script, src/main.rs and Cargo.toml. A staging directory that
// is the project root or holds project sources is refused before anything is
// removed.
func Prepare(plan Plan) error {
	rel, err := filepath.Rel(plan.Root, plan.StagingDir)
	if err == nil {
		err = workspacecfg.CheckStagingDir(rel, plan.Entry)
	}
	if err != nil {
		return &framework.FileOperationError{
			Operation: "prepare staging directory",
			Path:      plan.StagingDir,
			Message:   err.Error(),
			Err:       err,
		}
	}
	if err := os.RemoveAll(plan.StagingDir); err != nil {
		return fmt.Errorf("clear staging directory: %w", err)
	}
	srcDir := filepath.Join(plan.StagingDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	if err := copyFile(filepath.Join(plan.Root, plan.Entry), filepath.Join(srcDir, EntryFileName), 0o644); err != nil {
		return &framework.FileOperationError{
			Operation: "copy entry script",
			Path:      plan.Entry,
			Message:   err.Error(),
			Err:       err,
		}
	}
	data := map[string]string{
		"EntryName":   EntryFileName,
		"PackageName": HostPackage,
		"RuntimePath": plan.RuntimePath,
	}
	if err := render("main.rs.tmpl", filepath.Join(srcDir, "main.rs"), data); err != nil {
		return err
	}
	return render("Cargo.toml.tmpl", filepath.Join(plan.StagingDir, "Cargo.toml"), data)
}

// Run executes the whole pipeline and returns the path of the bundled
// executable. A cargo failure leaves the staging directory in place.
func Run(ctx context.Context, ec *framework.ExecutionContext, opts Options) (string, error) {
	plan, err := NewPlan(ec.Root, opts, ec.Windows())
	if err != nil {
		return "", err
	}
	ec.Console.Step("Bundling %s into %s", plan.Entry, plan.OutputName)
	if err := Prepare(plan); err != nil {
		return "", err
	}
	cargo, ok := ec.Lookup(ctx, framework.ToolCargo)
	if !ok {
		cargo = framework.FallbackName(framework.ToolCargo)
	}
	ec.Console.Step("Compiling standalone host in %s", filepath.Base(plan.StagingDir))
	if _, err := ec.Delegate(ctx, "cargo build --release", framework.CommandRequest{
		Workdir: plan.StagingDir,
		Args:    cargo.Command("build", "--release"),
	}); err != nil {
		return "", err
	}
	binary := plan.BinaryPath()
	if info, err := os.Stat(binary); err != nil || info.IsDir() {
		return "", &framework.InternalError{Message: "binary not found after build"}
	}
	if err := copyFile(binary, plan.OutputPath(), 0o755); err != nil {
		return "", &framework.FileOperationError{
			Operation: "copy binary",
			Path:      plan.OutputPath(),
			Message:   err.Error(),
			Err:       err,
		}
	}
	return plan.OutputPath(), nil
}

func render(name, dest string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return &framework.InternalError{Message: fmt.Sprintf("render %s: %v", name, err)}
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, perm)
}
