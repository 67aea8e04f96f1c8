package main

import (
	"fmt"
	"os"

	domain "github.com/flowforge/streamline/internal/domain/pipeline"
)

// printSummary writes the final run summary to stdout once the live
// progress view (if any) has exited.
func printSummary(summary domain.Summary) {
	fmt.Printf("run %s: %s — processed=%d succeeded=%d failed=%d skipped=%d\n",
		summary.RunID, summary.Status, summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	if summary.Paused {
		fmt.Printf("paused at step %q\n", summary.PausedAtStep)
	}
	for _, step := range summary.Details {
		if step.Err != nil {
			fmt.Fprintf(os.Stderr, "  step %s: %v\n", step.StepKey, step.Err)
		}
	}
}

// exitCodeFor maps a run's terminal status to the CLI's documented exit
// codes: 0 success, 1 run failed, 3 cancelled.
func exitCodeFor(summary domain.Summary) int {
	switch summary.Status {
	case domain.RunCancelled:
		return exitCancelled
	case domain.RunFailed:
		return exitRunFailed
	default:
		if summary.Failed > 0 {
			return exitRunFailed
		}
		return exitSuccess
	}
}
