// Package cache provides a read-through, write-through cache of generation
// artifacts keyed by (product, stage). Concurrent requests for the same key
// share a single computation.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/listing-cli/internal/model"
	"github.com/sells-group/listing-cli/internal/store"
)

// ComputeFunc produces the text of an artifact. It is only called on a cache
// miss or a forced regeneration.
type ComputeFunc func(ctx context.Context) (string, error)

// ArtifactCache layers an in-memory map over the persistent store. Writes go
// through to the store before the caller sees the artifact, so a process
// restart never loses a returned artifact.
type ArtifactCache struct {
	store store.Store
	group singleflight.Group

	mu  sync.RWMutex
	mem map[string]*model.Artifact
}

func New(st store.Store) *ArtifactCache {
	return &ArtifactCache{
		store: st,
		mem:   make(map[string]*model.Artifact),
	}
}

func key(productID string, stage model.Stage) string {
	return productID + "/" + string(stage)
}

// Get returns the cached artifact for (product, stage), consulting the store
// when the memory layer misses. Returns (nil, nil) when no artifact exists.
func (c *ArtifactCache) Get(ctx context.Context, productID string, stage model.Stage) (*model.Artifact, error) {
	k := key(productID, stage)

	c.mu.RLock()
	a, ok := c.mem[k]
	c.mu.RUnlock()
	if ok {
		return a, nil
	}

	a, err := c.store.GetArtifact(ctx, productID, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: load %s", k)
	}
	if a != nil {
		c.mu.Lock()
		c.mem[k] = a
		c.mu.Unlock()
	}
	return a, nil
}

// GetOrCompute returns the artifact for (product, stage), computing it when
// absent or when force is set. Concurrent callers for the same key join one
// in-flight computation. A failed forced recomputation leaves the previous
// artifact in place; the error is returned and the stale value stays
// retrievable via Get.
func (c *ArtifactCache) GetOrCompute(ctx context.Context, productID string, stage model.Stage, force bool, compute ComputeFunc) (*model.Artifact, bool, error) {
	k := key(productID, stage)

	if !force {
		a, err := c.Get(ctx, productID, stage)
		if err != nil {
			return nil, false, err
		}
		if a != nil {
			zap.L().Debug("cache hit", zap.String("key", k))
			return a, true, nil
		}
	}

	v, err, shared := c.group.Do(k, func() (any, error) {
		text, err := compute(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "cache: compute %s", k)
		}
		a := &model.Artifact{
			ID:          uuid.New().String(),
			ProductID:   productID,
			Stage:       stage,
			Text:        text,
			GeneratedAt: time.Now().UTC(),
		}
		if err := c.store.SaveArtifact(ctx, a); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.mem[k] = a
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		zap.L().Debug("cache computation shared", zap.String("key", k))
	}
	return v.(*model.Artifact), false, nil
}

// Invalidate drops the artifacts for the given stages (all stages when none
// are given) from memory and the store, returning the number of persisted
// artifacts removed.
func (c *ArtifactCache) Invalidate(ctx context.Context, productID string, stages ...model.Stage) (int, error) {
	if len(stages) == 0 {
		stages = []model.Stage{model.StageAnalysis, model.StageRecommendation, model.StageSummary}
	}

	c.mu.Lock()
	for _, st := range stages {
		delete(c.mem, key(productID, st))
	}
	c.mu.Unlock()

	n, err := c.store.DeleteArtifacts(ctx, productID, stages...)
	if err != nil {
		return 0, eris.Wrapf(err, "cache: invalidate %s", productID)
	}
	zap.L().Debug("cache invalidated",
		zap.String("product_id", productID),
		zap.Int("removed", n),
	)
	return n, nil
}
