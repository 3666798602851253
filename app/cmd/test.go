package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/cliutils"
	"github.com/jetcrabcollab/cpm/framework"
)

// npmPlaceholderTest is the test script `npm init` writes.
const npmPlaceholderTest = "no test specified"

// TestCommand runs the test suites of every toolchain the project uses.
type TestCommand struct{}

func (TestCommand) Name() string { return "test" }

func (TestCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		Args:  cobra.NoArgs,
	}
}

func (TestCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	kind, err := requireProject(ec)
	if err != nil {
		return err
	}
	ec.Console.Step("Running tests...")
	if kind.HasScript() {
		pkg, err := framework.LoadManifest(ec.Root, framework.PackageJSON)
		if err != nil {
			return err
		}
		script, _ := pkg.String("scripts", "test")
		if hasTestScript(script) {
			ec.Console.Step("Running JavaScript tests...")
			if err := cliutils.Attach(ctx, ec, framework.ToolNPM, "test"); err != nil {
				return err
			}
			ec.Console.Success("JavaScript tests completed!")
		} else {
			ec.Console.Warn("No test script found in package.json")
			ec.Console.Hint("Add a test script to package.json or run tests manually")
		}
	}
	if kind.HasCompiled() {
		ec.Console.Step("Running Rust tests...")
		if err := cliutils.Attach(ctx, ec, framework.ToolCargo, "test"); err != nil {
			return err
		}
		ec.Console.Success("Rust tests completed!")
	}
	return nil
}

// hasTestScript reports whether script runs an actual suite. The npm
// placeholder and the "cpm test" alias written by init do not; the latter
// would call back into this command.
func hasTestScript(script string) bool {
	script = strings.TrimSpace(script)
	if script == "" || strings.Contains(script, npmPlaceholderTest) {
		return false
	}
	fields := strings.Fields(script)
	return !(len(fields) >= 2 && fields[0] == "cpm" && fields[1] == "test")
}
