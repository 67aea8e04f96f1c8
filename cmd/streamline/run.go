package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

type runOptions struct {
	dryRun bool
}

func newRunCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <pipeline-code>",
		Short: "execute a published pipeline end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.configPath != "" {
				ctx, _ := app.CommandContext(cmd, "sync")
				if _, err := app.Sync.Sync(ctx, ports.ConfigSource{}, root.configPath); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitConfigInvalid)
				}
			}
			return runRun(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "execute a non-published pipeline without enforcing the executable check")
	return cmd
}

func runRun(cmd *cobra.Command, app *AppContext, pipelineCode string, opts runOptions) error {
	ctx, _ := app.CommandContext(cmd, "run")

	program, stop, runDone := subscribeProgress(app.Events, pipelineCode)
	defer stop()

	summary, err := app.Execute.Run(ctx, pipelineCode, ports.ExecuteOptions{DryRun: opts.dryRun})

	if program != nil {
		program.Send(tea.QuitMsg{})
		<-runDone
	}

	if err != nil {
		if code, ok := pipelineerr.CodeOf(err); ok && code == pipelineerr.ConfigInvalid {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitConfigInvalid)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRunFailed)
	}

	printSummary(summary)
	if code := exitCodeFor(summary); code != exitSuccess {
		os.Exit(code)
	}
	return nil
}
