package pipeline

import (
	"context"

	"github.com/sells-group/listing-cli/internal/cache"
	"github.com/sells-group/listing-cli/internal/generate"
	"github.com/sells-group/listing-cli/internal/model"
)

// SummaryAggregator renders the final cycle report from the recommendation
// set and its apply outcomes. The report is cached under the summary stage;
// a forced refresh re-renders from the recorded outcomes without redoing the
// apply stage.
type SummaryAggregator struct {
	cache *cache.ArtifactCache
	gen   generate.Generator
}

func NewSummaryAggregator(c *cache.ArtifactCache, gen generate.Generator) *SummaryAggregator {
	return &SummaryAggregator{cache: c, gen: gen}
}

func (s *SummaryAggregator) Summarize(ctx context.Context, product *model.Product, set *model.RecommendationSet, outcomes []model.ApplyOutcome, force bool) (*model.Artifact, error) {
	artifact, _, err := s.cache.GetOrCompute(ctx, set.ProductID, model.StageSummary, force, func(ctx context.Context) (string, error) {
		return s.gen.Generate(ctx, model.StageSummary, product, generate.Inputs{
			Items:    set.Items,
			Outcomes: outcomes,
		})
	})
	return artifact, err
}
