package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/internal/project"
	"github.com/jetcrabcollab/cpm/internal/workspacecfg"
	"github.com/jetcrabcollab/cpm/framework"
)

// loadConfig reads cpm.yaml from the project root.
func loadConfig(ec *framework.ExecutionContext) (*workspacecfg.Config, error) {
	cfg, err := workspacecfg.Load(ec.Root)
	if err != nil {
		return nil, &framework.FileOperationError{
			Operation: "read " + workspacecfg.FileName,
			Path:      workspacecfg.FileName,
			Message:   err.Error(),
			Err:       err,
		}
	}
	return cfg, nil
}

// requireProject fails unless root holds at least one manifest.
func requireProject(ec *framework.ExecutionContext) (project.Kind, error) {
	kind := project.Classify(ec.Root)
	if kind == project.Uninitialized {
		return kind, framework.NotInitialized(framework.PackageJSON, "cpm init")
	}
	return kind, nil
}

// scriptRuntime is the interpreter chosen to execute an entry script.
type scriptRuntime struct {
	inv    framework.Invocation
	prefix []string
	label  string
}

// command builds the argv running file with extra arguments.
func (r scriptRuntime) command(file string, args ...string) []string {
	out := r.inv.Command(r.prefix...)
	out = append(out, file)
	return append(out, args...)
}

// execLine is the runtime invocation without the file, as nodemon --exec
// expects it.
func (r scriptRuntime) execLine() string {
	return strings.Join(r.inv.Command(r.prefix...), " ")
}

// selectRuntime prefers jetcrab and falls back to node. A missing jetcrab is
// reported as a warning; a missing node surfaces when the child fails to
// start.
func selectRuntime(ctx context.Context, ec *framework.ExecutionContext, cfg *workspacecfg.Config) scriptRuntime {
	if !cfg.PreferNode() {
		if inv, ok := ec.Lookup(ctx, framework.ToolJetCrab); ok {
			ec.Console.Step("Using JetCrab runtime...")
			return scriptRuntime{inv: inv, prefix: []string{"run"}, label: "jetcrab run"}
		}
		ec.Console.Warn("JetCrab runtime not found, falling back to Node.js")
	}
	ec.Console.Step("Using Node.js runtime...")
	return scriptRuntime{inv: cliutils.Resolve(ctx, ec, framework.ToolNode), label: "node"}
}

// writeFile creates path under the project root, reporting failures in the
// user facing taxonomy.
func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &framework.FileOperationError{Operation: "create directory", Path: filepath.Dir(path), Message: err.Error(), Err: err}
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return &framework.FileOperationError{Operation: "write", Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// removePath deletes a file or directory tree if it exists and reports
// whether anything was removed.
func removePath(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &framework.FileOperationError{Operation: "stat", Path: path, Message: err.Error(), Err: err}
	}
	if err := os.RemoveAll(path); err != nil {
		return false, &framework.FileOperationError{Operation: "remove", Path: path, Message: err.Error(), Err: err}
	}
	return true, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
