package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flowforge/streamline/internal/application/configsync"
	"github.com/flowforge/streamline/internal/application/orchestrator"
	"github.com/flowforge/streamline/internal/ports"
)

// AppContext bundles the long-lived services wired at startup, the
// counterpart to the teacher's AppContext generalized from one
// Prepare/Apply/Verify trio to this runtime's execute/replay/sync
// use cases.
type AppContext struct {
	Logger  ports.Logger
	Events  ports.EventPublisher
	Execute *orchestrator.ExecuteUseCase
	Replay  *orchestrator.ReplayUseCase
	Sync    *configsync.SyncUseCase
}

// CommandContext returns the command's context (falling back to
// Background) together with a component-scoped logger.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}
