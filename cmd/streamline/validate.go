package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd(app *AppContext, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "check a code-first config file for syntax and schema errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.configPath == "" {
				fmt.Fprintln(os.Stderr, "--config is required")
				os.Exit(exitConfigInvalid)
			}
			ctx, _ := app.CommandContext(cmd, "validate")
			if err := app.Sync.Validate(ctx, root.configPath); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigInvalid)
			}
			fmt.Println("config valid")
			return nil
		},
	}
}
