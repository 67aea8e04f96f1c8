package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newResumeCmd(app *AppContext, root *rootFlags) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "resume <pipeline-code>",
		Short: "resume a paused run from its last checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelineCode := args[0]
			ctx, _ := app.CommandContext(cmd, "resume")

			program, stop, runDone := subscribeProgress(app.Events, pipelineCode)
			defer stop()

			summary, err := app.Execute.Resume(ctx, pipelineCode, runID)

			if program != nil {
				program.Send(tea.QuitMsg{})
				<-runDone
			}

			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRunFailed)
			}

			printSummary(summary)
			if code := exitCodeFor(summary); code != exitSuccess {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run id to resume (defaults to the pipeline's last checkpointed run)")
	return cmd
}
