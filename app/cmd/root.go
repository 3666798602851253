// Package cmd holds the cpm subcommands. Each command is a small type that
// satisfies framework.Command; NewRegistry wires them in help order.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jetcrabcollab/cpm/internal/toolchain"
	"github.com/jetcrabcollab/cpm/internal/workspacecfg"
	"github.com/jetcrabcollab/cpm/framework"
)

// Version is reported by `cpm --version`.
var Version = "0.1.0"

// NewRegistry registers every cpm command. The order is the help order.
func NewRegistry() *framework.Registry {
	reg := framework.NewRegistry()
	for _, c := range []framework.Command{
		InitCommand{},
		AddRustCommand{},
		RemoveRustCommand{},
		RustStatusCommand{},
		NpxCommand{},
		AddCommand{},
		RemoveCommand{},
		LockCommand{},
		WorkspaceCommand{},
		PublishCommand{},
		InstallCommand{},
		BuildCommand{},
		DevCommand{},
		TestCommand{},
		RunCommand{},
		DoctorCommand{},
		ConfigCommand{},
	} {
		reg.Register(c)
	}
	return reg
}

// NewApp binds the registry to env.
func NewApp(env framework.Env) *framework.App {
	return &framework.App{
		Name:     "cpm",
		Version:  Version,
		Short:    "A modern package manager for JavaScript and Rust",
		Registry: NewRegistry(),
		Env:      env,
	}
}

// DefaultEnv wires the host process: real stdio, os/exec and a toolchain
// probe honouring the toolchains section of cpm.yaml in the working
// directory.
func DefaultEnv() framework.Env {
	runner := framework.ExecRunner{}
	var opts []toolchain.Option
	if wd, err := os.Getwd(); err == nil {
		if cfg, err := workspacecfg.Load(wd); err == nil && len(cfg.Toolchains) > 0 {
			opts = append(opts, toolchain.WithOverrides(cfg.Toolchains))
		}
	}
	return framework.Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Runner: runner,
		Probe:  toolchain.New(runner, runtime.GOOS, opts...),
		Getenv: os.Getenv,
		GOOS:   runtime.GOOS,
	}
}

// Execute runs cpm for the current process and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := NewApp(DefaultEnv()).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
