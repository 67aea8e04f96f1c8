// Package configsync drives the startup config-sync flow: load the
// code-first file, merge inline overrides, and upsert the result, the
// application-layer counterpart to the teacher's prepare use case.
package configsync

import (
	"context"

	"github.com/flowforge/streamline/internal/ports"
)

// SyncUseCase wraps ports.ConfigSyncer with logging and a validate-only
// path for the CLI's `validate` subcommand.
type SyncUseCase struct {
	Syncer ports.ConfigSyncer
	Loader ports.ConfigLoader
	Logger ports.Logger
}

// NewSyncUseCase wires a config sync use case from its collaborating ports.
func NewSyncUseCase(syncer ports.ConfigSyncer, loader ports.ConfigLoader, logger ports.Logger) *SyncUseCase {
	return &SyncUseCase{Syncer: syncer, Loader: loader, Logger: logger}
}

// Sync loads filePath, merges inline on top, and upserts every pipeline/
// secret/connection into the store.
func (u *SyncUseCase) Sync(ctx context.Context, inline ports.ConfigSource, filePath string) (ports.ConfigSource, error) {
	if u.Logger != nil {
		u.Logger.Info(ctx, "syncing pipeline config", "path", filePath)
	}
	merged, err := u.Syncer.Sync(ctx, inline, filePath)
	if err != nil {
		if u.Logger != nil {
			u.Logger.Error(ctx, "config sync failed", "path", filePath, "error", err.Error())
		}
		return ports.ConfigSource{}, err
	}
	if u.Logger != nil {
		u.Logger.Info(ctx, "config sync complete", "path", filePath, "pipelines", len(merged.Pipelines))
	}
	return merged, nil
}

// Validate performs a syntax/schema-only check of filePath without
// merging or upserting, for `streamline validate`.
func (u *SyncUseCase) Validate(ctx context.Context, filePath string) error {
	return u.Loader.Validate(ctx, filePath)
}
