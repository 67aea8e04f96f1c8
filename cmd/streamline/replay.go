package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type replayOptions struct {
	errorIDs []string
	patch    map[string]string
}

func newReplayCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "re-run previously failed records from the step that failed them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.errorIDs) == 0 {
				fmt.Fprintln(os.Stderr, "at least one --error-id is required")
				os.Exit(exitConfigInvalid)
			}

			patch := make(map[string]any, len(opts.patch))
			for k, v := range opts.patch {
				patch[k] = v
			}

			ctx, _ := app.CommandContext(cmd, "replay")
			result, err := app.Replay.Retry(ctx, opts.errorIDs, patch)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitRunFailed)
			}

			fmt.Printf("replay: attempted=%d succeeded=%d failed=%d\n", result.Attempted, result.Succeeded, result.Failed)
			if result.Failed > 0 {
				os.Exit(exitRunFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.errorIDs, "error-id", nil, "journaled error id to replay (repeatable)")
	cmd.Flags().StringToStringVar(&opts.patch, "patch", nil, "field=value overrides applied to each replayed payload")
	return cmd
}
