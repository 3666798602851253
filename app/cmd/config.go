package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jetcrabcollab/cpm/internal/workspacecfg"
	"github.com/jetcrabcollab/cpm/framework"
)

// ConfigCommand inspects or modifies cpm.yaml by dotted key.
type ConfigCommand struct{}

func (ConfigCommand) Name() string { return "config" }

func (ConfigCommand) Describe() *cobra.Command {
	return &cobra.Command{
		Use:   "config get <key> | config set <key> <value>",
		Short: "Inspect or modify cpm.yaml",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected get or set")
			}
			switch args[0] {
			case "get":
				return cobra.ExactArgs(2)(cmd, args)
			case "set":
				return cobra.ExactArgs(3)(cmd, args)
			default:
				return fmt.Errorf("unknown config action %q", args[0])
			}
		},
	}
}

func (ConfigCommand) Execute(ctx context.Context, ec *framework.ExecutionContext, args []string) error {
	doc, err := workspacecfg.Open(ec.Root)
	if err != nil {
		return &framework.FileOperationError{Operation: "read", Path: workspacecfg.FileName, Message: err.Error(), Err: err}
	}
	key := args[1]
	if args[0] == "get" {
		value, ok := doc.Get(key)
		if !ok {
			return fmt.Errorf("key %s not found", key)
		}
		fmt.Fprintln(ec.Stdout, workspacecfg.Format(value))
		return nil
	}

	if err := doc.Set(key, args[2]); err != nil {
		return &framework.FileOperationError{Operation: "set " + key, Path: workspacecfg.FileName, Message: err.Error(), Err: err}
	}
	if err := doc.Save(); err != nil {
		return &framework.FileOperationError{Operation: "write", Path: workspacecfg.FileName, Message: err.Error(), Err: err}
	}
	ec.Console.Success("%s updated", key)
	return nil
}
