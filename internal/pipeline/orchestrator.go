// Package pipeline drives the per-product optimization state machine:
// analysis and recommendation generation, human approval, field application,
// and summary reporting. Commands for one product are serialized; distinct
// products run fully concurrently.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/listing-cli/internal/cache"
	"github.com/sells-group/listing-cli/internal/catalog"
	"github.com/sells-group/listing-cli/internal/config"
	"github.com/sells-group/listing-cli/internal/generate"
	"github.com/sells-group/listing-cli/internal/model"
	"github.com/sells-group/listing-cli/internal/store"
)

// Orchestrator exposes the pipeline commands. Exactly one live state exists
// per product; commands against it are mutually exclusive at product
// granularity, and concurrent duplicate StartAnalysis calls join a single
// execution instead of conflicting.
type Orchestrator struct {
	states     store.Store
	cache      *cache.ArtifactCache
	products   catalog.Store
	gen        generate.Generator
	applier    *ApplyExecutor
	summarizer *SummaryAggregator
	cascade    bool

	startGroup singleflight.Group
	locks      keyedLocks
}

func NewOrchestrator(states store.Store, c *cache.ArtifactCache, products catalog.Store, gen generate.Generator, cfg config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		states:     states,
		cache:      c,
		products:   products,
		gen:        gen,
		applier:    NewApplyExecutor(products, time.Duration(cfg.ApplyTimeoutSecs)*time.Second),
		summarizer: NewSummaryAggregator(c, gen),
		cascade:    cfg.CascadeInvalidation,
	}
}

// StartAnalysis runs the analysis and recommendation stages and leaves the
// product awaiting approval. Generation failures are recorded in the
// returned state, not returned as errors; only invalid transitions and
// command conflicts fail the call itself. Concurrent calls for the same
// product share one execution and receive the same state.
func (o *Orchestrator) StartAnalysis(ctx context.Context, productID string, force bool) (*model.PipelineState, error) {
	product, err := o.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	// Forced and non-forced runs must not share a flight: a forced caller
	// joining a cached run would silently lose its refresh.
	key := productID
	if force {
		key += "/force"
	}
	v, err, shared := o.startGroup.Do(key, func() (any, error) {
		return o.startAnalysis(ctx, product, force)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("joined in-flight analysis", zap.String("product_id", productID))
	}
	return v.(*model.PipelineState), nil
}

func (o *Orchestrator) startAnalysis(ctx context.Context, product *model.Product, force bool) (*model.PipelineState, error) {
	lock := o.locks.get(product.ID)
	if !lock.TryLock() {
		return nil, ErrCommandInFlight
	}
	defer lock.Unlock()

	prev, err := o.loadState(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if !prev.CanStartAnalysis() {
		return nil, ErrCommandInFlight
	}

	// A new cycle resets the state before re-entering the analysis stage.
	state := &model.PipelineState{ProductID: product.ID, Stage: model.StageNotStarted}

	if force {
		stages := []model.Stage{model.StageAnalysis, model.StageRecommendation}
		if o.cascade {
			stages = nil // all stages
		}
		if _, err := o.cache.Invalidate(ctx, product.ID, stages...); err != nil {
			return nil, err
		}
	}

	analysis, _, err := o.cache.GetOrCompute(ctx, product.ID, model.StageAnalysis, force, func(ctx context.Context) (string, error) {
		return o.gen.Generate(ctx, model.StageAnalysis, product, generate.Inputs{})
	})
	if err != nil {
		return o.fail(ctx, state, "analysis generation failed", err)
	}
	state.Analysis = analysis
	state.Stage = model.StageAnalysisReady

	recArtifact, _, err := o.cache.GetOrCompute(ctx, product.ID, model.StageRecommendation, force, func(ctx context.Context) (string, error) {
		return o.gen.Generate(ctx, model.StageRecommendation, product, generate.Inputs{Analysis: analysis.Text})
	})
	if err != nil {
		return o.fail(ctx, state, "recommendation generation failed", err)
	}

	state.Recommendations = ParseRecommendations(recArtifact)
	state.Stage = model.StageRecommendationsReady
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}

	// Exposing the set to the caller moves the cycle straight on to
	// approval; RecommendationsReady is transient.
	state.Stage = model.StageAwaitingApproval
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}

	zap.L().Info("analysis cycle ready for approval",
		zap.String("product_id", product.ID),
		zap.Int("recommendations", len(state.Recommendations.Items)),
	)
	return state, nil
}

// Accept applies the pending recommendations and generates the cycle
// summary. With zero pending recommendations the cycle completes
// immediately. Apply failures are recorded per item and never fail the
// call; a summary generation failure marks the cycle Failed.
func (o *Orchestrator) Accept(ctx context.Context, productID string) (*model.PipelineState, error) {
	lock := o.locks.get(productID)
	if !lock.TryLock() {
		return nil, ErrCommandInFlight
	}
	defer lock.Unlock()

	state, err := o.loadState(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !state.CanAccept() {
		return nil, ErrInvalidTransition
	}

	product, err := o.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if len(state.Recommendations.Items) == 0 {
		state.Stage = model.StageCompleted
		if err := o.saveState(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	state.Stage = model.StageApplying
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}

	state.Outcomes = o.applier.Apply(ctx, state.Recommendations)

	// Force the summary stage: a cached summary from an earlier cycle would
	// not reflect the outcomes just recorded.
	summary, err := o.summarizer.Summarize(ctx, product, state.Recommendations, state.Outcomes, true)
	if err != nil {
		return o.fail(ctx, state, "summary generation failed", err)
	}
	state.Summary = summary
	state.Stage = model.StageCompleted
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}

	zap.L().Info("optimization cycle completed",
		zap.String("product_id", productID),
		zap.Int("applied", model.Applied(state.Outcomes)),
		zap.Int("total", len(state.Outcomes)),
	)
	return state, nil
}

// Reject discards the pending recommendation set and returns the product to
// NotStarted. Cached artifacts stay in place, so a later non-forced
// StartAnalysis reuses them without new generator calls.
func (o *Orchestrator) Reject(ctx context.Context, productID string) (*model.PipelineState, error) {
	lock := o.locks.get(productID)
	if !lock.TryLock() {
		return nil, ErrCommandInFlight
	}
	defer lock.Unlock()

	state, err := o.loadState(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !state.CanReject() {
		return nil, ErrInvalidTransition
	}

	state = &model.PipelineState{ProductID: productID, Stage: model.StageNotStarted}
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}
	zap.L().Info("recommendations rejected", zap.String("product_id", productID))
	return state, nil
}

// GetState returns the current state for a product, synthesizing NotStarted
// when no cycle has run.
func (o *Orchestrator) GetState(ctx context.Context, productID string) (*model.PipelineState, error) {
	if _, err := o.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	return o.loadState(ctx, productID)
}

// ListStates returns every persisted pipeline state.
func (o *Orchestrator) ListStates(ctx context.Context) ([]model.PipelineState, error) {
	return o.states.ListStates(ctx)
}

// Recover marks cycles interrupted mid-apply as Failed. A crash during the
// apply stage cannot be resumed safely, so on startup such states become
// Failed rather than silently continuing.
func (o *Orchestrator) Recover(ctx context.Context) error {
	states, err := o.states.ListStates(ctx)
	if err != nil {
		return eris.Wrap(err, "pipeline: recover")
	}

	recovered := 0
	for i := range states {
		if states[i].Stage != model.StageApplying {
			continue
		}
		st := states[i]
		st.Stage = model.StageFailed
		st.Error = "apply interrupted by restart"
		if err := o.saveState(ctx, &st); err != nil {
			return err
		}
		recovered++
	}
	if recovered > 0 {
		zap.L().Warn("marked interrupted cycles as failed", zap.Int("count", recovered))
	}
	return nil
}

func (o *Orchestrator) loadState(ctx context.Context, productID string) (*model.PipelineState, error) {
	state, err := o.states.GetState(ctx, productID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &model.PipelineState{ProductID: productID, Stage: model.StageNotStarted}
	}
	return state, nil
}

func (o *Orchestrator) saveState(ctx context.Context, state *model.PipelineState) error {
	state.UpdatedAt = time.Now().UTC()
	return o.states.SaveState(ctx, state)
}

// fail records a terminal generation failure in the state. The error travels
// as state data; callers inspect Stage and Error rather than a return error.
func (o *Orchestrator) fail(ctx context.Context, state *model.PipelineState, msg string, cause error) (*model.PipelineState, error) {
	state.Stage = model.StageFailed
	state.Error = msg + ": " + cause.Error()
	zap.L().Error(msg,
		zap.String("product_id", state.ProductID),
		zap.Error(cause),
	)
	if err := o.saveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
