package framework

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Hooks are side effects injected at fixed points of a run. They sit outside
// the engine; nil hooks are skipped.
type Hooks struct {
	OnStart    func()
	BeforeExit func(code int)
}

// App turns a Registry into a runnable command line program.
type App struct {
	Name     string
	Version  string
	Short    string
	Registry *Registry
	Env      Env
	Hooks    Hooks
}

type globalOptions struct {
	verbose   bool
	quiet     bool
	workspace string
}

// RootCommand builds the cobra tree. Every registered Command becomes exactly
// one subcommand; invoking the root without a subcommand prints help.
func (a *App) RootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:                a.Name,
		Short:              a.Short,
		Version:            a.Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(a.Env.Stdin)
	root.SetOut(a.Env.Stdout)
	root.SetErr(a.Env.Stderr)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print diagnostic logs")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print warnings and errors")
	root.PersistentFlags().StringVar(&opts.workspace, "workspace", "", "Project directory (defaults to the current directory)")

	for _, spec := range a.Registry.All() {
		spec := spec
		sub := spec.Describe()
		if sub.Name() != spec.Name() {
			panic(fmt.Sprintf("command %s describes itself as %s", spec.Name(), sub.Name()))
		}
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			ec, err := a.newExecutionContext(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = ec.Logger.Sync() }()
			ec.Logger.Debug("dispatch", zap.String("command", spec.Name()), zap.Strings("args", args), zap.String("root", ec.Root))
			return spec.Execute(cmd.Context(), ec, args)
		}
		root.AddCommand(sub)
	}
	return root
}

func (a *App) newExecutionContext(cmd *cobra.Command, opts *globalOptions) (*ExecutionContext, error) {
	root, err := a.resolveRoot(opts.workspace)
	if err != nil {
		return nil, err
	}
	goos := a.Env.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	getenv := a.Env.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	runner := a.Env.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ExecutionContext{
		Verbose: opts.verbose,
		Quiet:   opts.quiet,
		Root:    root,
		Flags:   cmd.Flags(),
		Console: NewConsole(a.Env.Stderr, opts.quiet),
		Logger:  NewLogger(a.Env.Stderr, opts.verbose, opts.quiet),
		Stdin:   a.Env.Stdin,
		Stdout:  a.Env.Stdout,
		Stderr:  a.Env.Stderr,
		Runner:  runner,
		Probe:   a.Env.Probe,
		Getenv:  getenv,
		GOOS:    goos,
	}, nil
}

func (a *App) resolveRoot(workspace string) (string, error) {
	base := a.Env.Root
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = wd
	}
	if workspace == "" {
		return base, nil
	}
	if !filepath.IsAbs(workspace) {
		workspace = filepath.Join(base, workspace)
	}
	return filepath.Clean(workspace), nil
}

// Run dispatches args (without the program name) and returns the process
// exit status: 0 on success, 1 when the selected handler or argument parsing
// failed. The error message is written to the error stream. A run cut short
// by cancellation of ctx exits cleanly.
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Hooks.OnStart != nil {
		a.Hooks.OnStart()
	}
	root := a.RootCommand()
	root.SetArgs(args)
	code := 0
	switch err := root.ExecuteContext(ctx); {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// interrupted by the user; the child already reported its own state
	default:
		NewConsole(a.Env.Stderr, false).Failure(err.Error())
		code = 1
	}
	if a.Hooks.BeforeExit != nil {
		a.Hooks.BeforeExit(code)
	}
	return code
}
