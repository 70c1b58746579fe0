// Package store persists pipeline states and stage artifacts so completed
// cycles (and their summaries) survive a process restart.
package store

import (
	"context"

	"github.com/sells-group/listing-cli/internal/model"
)

// Store defines the persistence interface for the optimization pipeline.
// Get methods return (nil, nil) when no row exists.
type Store interface {
	// Pipeline states, one row per product.
	SaveState(ctx context.Context, state *model.PipelineState) error
	GetState(ctx context.Context, productID string) (*model.PipelineState, error)
	ListStates(ctx context.Context) ([]model.PipelineState, error)

	// Stage artifacts, one row per (product, stage); saving overwrites.
	SaveArtifact(ctx context.Context, artifact *model.Artifact) error
	GetArtifact(ctx context.Context, productID string, stage model.Stage) (*model.Artifact, error)
	DeleteArtifacts(ctx context.Context, productID string, stages ...model.Stage) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens a store for the configured driver.
func New(ctx context.Context, driver, databaseURL string) (Store, error) {
	if driver == "postgres" {
		return NewPostgres(ctx, databaseURL)
	}
	return NewSQLite(databaseURL)
}
