// Package framework hosts the orchestration engine that every cpm command
// depends on: the command registry and dispatcher, the per-run execution
// context, the manifest accessor, the process runner abstraction, and the
// error taxonomy surfaced to users.
//
// Nothing in this package reads the process working directory or environment
// directly. Callers inject a root path, stdio streams, a runner, and a probe so
// each command can be exercised against a synthetic directory tree in tests.
package framework

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Env bundles the long-lived collaborators shared by every dispatch. It is
// built once in main and never mutated afterwards.
type Env struct {
	Root   string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Runner CommandRunner
	Probe  ToolProbe
	Getenv func(string) string
	GOOS   string
}

// ExecutionContext is created fresh for a single command invocation and
// discarded afterwards. It carries the cross-cutting flags plus the injected
// collaborators the handler needs.
type ExecutionContext struct {
	Verbose bool
	Quiet   bool
	// Root is the directory the command operates on. All manifests, staging
	// directories and produced binaries live underneath it.
	Root    string
	Flags   *pflag.FlagSet
	Console *Console
	Logger  *zap.Logger
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Runner  CommandRunner
	Probe   ToolProbe
	Getenv  func(string) string
	GOOS    string
}

// Path joins elem onto the context root.
func (ec *ExecutionContext) Path(elem ...string) string {
	return filepath.Join(append([]string{ec.Root}, elem...)...)
}

// Env returns the value of an environment variable through the injected
// lookup.
func (ec *ExecutionContext) Env(key string) string {
	if ec.Getenv == nil {
		return ""
	}
	return ec.Getenv(key)
}

// Windows reports whether platform specific executable names apply.
func (ec *ExecutionContext) Windows() bool {
	return ec.GOOS == "windows"
}

// Bool reads a boolean flag of the selected command, defaulting to false when
// the command does not declare it.
func (ec *ExecutionContext) Bool(name string) bool {
	if ec.Flags == nil {
		return false
	}
	v, err := ec.Flags.GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// Lookup probes a tool, tolerating a nil probe.
func (ec *ExecutionContext) Lookup(ctx context.Context, tool Tool) (Invocation, bool) {
	if ec.Probe == nil {
		return Invocation{}, false
	}
	inv, ok := ec.Probe.Probe(ctx, tool)
	if ok {
		ec.Logger.Debug("tool available", zap.String("tool", string(tool)), zap.String("name", inv.Name), zap.String("path", inv.Path))
	} else {
		ec.Logger.Debug("tool unavailable", zap.String("tool", string(tool)))
	}
	return inv, ok
}

// Run executes a child process rooted at the context root unless the request
// names another workdir.
func (ec *ExecutionContext) Run(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	if req.Workdir == "" {
		req.Workdir = ec.Root
	}
	if req.Stdio == StdioInherit {
		if req.Stdin == nil {
			req.Stdin = ec.Stdin
		}
		if req.Stdout == nil {
			req.Stdout = ec.Stdout
		}
		if req.Stderr == nil {
			req.Stderr = ec.Stderr
		}
	}
	ec.Logger.Debug("exec", zap.Strings("args", req.Args), zap.String("workdir", req.Workdir))
	res, err := ec.Runner.Run(ctx, req)
	if err != nil {
		ec.Logger.Debug("exec failed to start", zap.Strings("args", req.Args), zap.Error(err))
		return nil, err
	}
	ec.Logger.Debug("exec finished", zap.Strings("args", req.Args), zap.Int("exit_code", res.ExitCode))
	return res, nil
}

// Delegate runs a captured invocation and converts a non-zero exit into an
// ExternalCommandError labelled with label.
func (ec *ExecutionContext) Delegate(ctx context.Context, label string, req CommandRequest) (*CommandResult, error) {
	res, err := ec.Run(ctx, req)
	if err != nil {
		return nil, &ExternalCommandError{Command: label, Message: err.Error(), Err: err}
	}
	if !res.Success() {
		return res, &ExternalCommandError{Command: label, Message: FailureMessage(res)}
	}
	return res, nil
}
