package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/internal/project"
	"github.com/jetcrabcollab/cpm/internal/watch"
	"github.com/jetcrabcollab/cpm/internal/workspacecfg"
	"github.com/jetcrabcollab/cpm/framework"
)

// DevCommand runs the entry script, optionally restarting it on changes.
type DevCommand struct{}

func (DevCommand) Name() string { return "dev" }

func (DevCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start development server",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolP("watch", "w", false, "Restart when files change")
	return cmd
}

func (DevCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	ec.Console.Step("Starting development server...")
	entry, err := project.ResolveEntry(ec.Root)
	if err != nil {
		ec.Console.Hint("Run 'cpm init' to create a new project or ensure index.js exists")
		return err
	}
	cfg, err := loadConfig(ec)
	if err != nil {
		return err
	}
	ec.Console.Step("Looking for JavaScript runtime...")
	rt := selectRuntime(ctx, ec, cfg)
	if !ec.Bool("watch") {
		return runScript(ctx, ec, rt, entry)
	}

	if nodemon, ok := ec.Lookup(ctx, framework.ToolNodemon); ok {
		ec.Console.Step("Watching for changes with nodemon...")
		_, err := ec.Delegate(ctx, "nodemon", framework.CommandRequest{
			Args:  nodemon.Command("--exec", rt.execLine(), entry),
			Stdio: framework.StdioInherit,
		})
		return err
	}
	ec.Console.Warn("nodemon not found, using the built-in file watcher")
	return watchScript(ctx, ec, cfg, rt, entry)
}

// runScript runs file with the selected runtime attached to the terminal.
func runScript(ctx context.Context, ec *framework.ExecutionContext, rt scriptRuntime, file string, args ...string) error {
	_, err := ec.Delegate(ctx, rt.label, framework.CommandRequest{
		Args:  rt.command(file, args...),
		Stdio: framework.StdioInherit,
	})
	return err
}

func watchScript(ctx context.Context, ec *framework.ExecutionContext, cfg *workspacecfg.Config, rt scriptRuntime, entry string) error {
	ignore := append([]string{cfg.Bundle.StagingDir}, cfg.Watch.Ignore...)
	w, err := watch.New(ec.Root, watch.Options{
		Debounce: cfg.Watch.Debounce,
		Ignore:   ignore,
		Logger:   ec.Logger,
	})
	if err != nil {
		return &framework.InternalError{Message: "start file watcher: " + err.Error()}
	}
	defer w.Close()

	ec.Console.Step("Watching %s for changes (Ctrl+C to stop)", filepath.Base(ec.Root))
	err = w.Run(ctx,
		func(runCtx context.Context) error {
			return runScript(runCtx, ec, rt, entry)
		},
		func(changed []string) {
			ec.Console.Step("Restarting: %s changed", strings.Join(changed, ", "))
		},
		func(err error) {
			if err != nil && !errors.Is(err, context.Canceled) {
				ec.Logger.Debug("script exited", zap.Error(err))
				ec.Console.Warn("App crashed, waiting for file changes before restarting...")
				return
			}
			ec.Console.Println("Clean exit, waiting for changes before restart")
		},
	)
	if errors.Is(err, watch.ErrStopped) {
		return &framework.InternalError{Message: err.Error()}
	}
	return err
}

// RunCommand runs a package.json script or a JavaScript file.
type RunCommand struct{}

func (RunCommand) Name() string { return "run" }

func (RunCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script> [-- args...]",
		Short: "Run a package.json script or a JavaScript file",
		Args:  cobra.MinimumNArgs(1),
	}
}

func (RunCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	target, rest := args[0], args[1:]
	if framework.ManifestExists(ec.Root, framework.PackageJSON) {
		pkg, err := framework.LoadManifest(ec.Root, framework.PackageJSON)
		if err != nil {
			return err
		}
		if _, ok := pkg.String("scripts", target); ok {
			ec.Console.Step("Running script '%s'...", target)
			npmArgs := []string{"run", target}
			if len(rest) > 0 {
				npmArgs = append(append(npmArgs, "--"), rest...)
			}
			return cliutils.Attach(ctx, ec, framework.ToolNPM, npmArgs...)
		}
	}

	path := target
	if !filepath.IsAbs(path) {
		path = ec.Path(target)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return framework.EntryPointMissing(target)
	}
	cfg, err := loadConfig(ec)
	if err != nil {
		return err
	}
	ec.Console.Step("Running %s...", target)
	return runScript(ctx, ec, selectRuntime(ctx, ec, cfg), target, rest...)
}
