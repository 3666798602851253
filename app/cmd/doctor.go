package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/setup"
	"github.com/jetcrabcollab/cpm/framework"
)

// DoctorCommand reports installed toolchains and the project layout.
type DoctorCommand struct{}

func (DoctorCommand) Name() string { return "doctor" }

func (DoctorCommand) Describe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check installed toolchains and project layout",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON on stdout")
	return cmd
}

func (DoctorCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, _ []string) error {
	report, err := setup.Detect(ctx, ec.Probe, ec.Root)
	if err != nil {
		return &framework.FileOperationError{Operation: "scan project", Path: ec.Root, Message: err.Error(), Err: err}
	}
	if ec.Bool("json") {
		return report.WriteJSON(ec.Stdout)
	}

	ec.Console.Header("Toolchains")
	for _, t := range report.Tools {
		version := t.Version
		if version == "" {
			version = "-"
		}
		ec.Console.Println("   %-10s %s  %-10s %s", t.Tool, ec.Console.Check(t.Available), version, t.Purpose)
		if t.Available && !t.Satisfied {
			ec.Console.Warn("%s %s does not satisfy %s", t.Tool, t.Version, t.Requirement)
		}
	}
	ec.Console.Header("Project")
	ec.Console.Println("   kind:    %s", report.Project)
	if report.Entry != "" {
		ec.Console.Println("   entry:   %s", report.Entry)
	}
	ec.Console.Println("   rust:    %s", report.Rust)
	ec.Console.Println("   sources: %d script, %d rust", report.Sources.Script, report.Sources.Compiled)

	problems := report.Problems()
	if len(problems) == 0 {
		ec.Console.Success("Everything needed for this project is installed")
		return nil
	}
	for _, p := range problems {
		ec.Console.Warn("%s is required for this project (%s)", p.Tool, p.Purpose)
	}
	return nil
}
