package main

import (
	"github.com/spf13/cobra"
)

// Exit codes per the runtime's CLI contract: 0 success, 1 run failed,
// 2 config invalid, 3 cancelled.
const (
	exitSuccess       = 0
	exitRunFailed     = 1
	exitConfigInvalid = 2
	exitCancelled     = 3
)

type rootFlags struct {
	verbose    bool
	configPath string
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "streamline",
		Short:         "streamline runs declarative commerce data-integration pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the code-first pipeline config file")

	cmd.AddCommand(newRunCmd(app, flags))
	cmd.AddCommand(newValidateCmd(app, flags))
	cmd.AddCommand(newReplayCmd(app, flags))
	cmd.AddCommand(newResumeCmd(app, flags))

	return cmd
}
