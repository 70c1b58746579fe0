// Package generate produces the text artifacts for the pipeline's
// generation stages: competitive analysis, recommendations, and the final
// summary report.
package generate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/listing-cli/internal/config"
	"github.com/sells-group/listing-cli/internal/guidelines"
	"github.com/sells-group/listing-cli/internal/model"
	"github.com/sells-group/listing-cli/internal/resilience"
)

// Inputs carries prior-stage context into a generation call. The analysis
// text feeds the recommendation stage; items and outcomes feed the summary.
type Inputs struct {
	Analysis string
	Items    []model.RecommendationItem
	Outcomes []model.ApplyOutcome
}

// Generator produces the text artifact for one pipeline stage. It may fail
// or time out; both surface as an error the orchestrator records.
type Generator interface {
	Generate(ctx context.Context, stage model.Stage, product *model.Product, in Inputs) (string, error)
}

// TextClient is the completion surface provided by pkg/anthropic and
// pkg/gemini.
type TextClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// StageGenerator implements Generator over a TextClient, bounding every call
// with a timeout and a shared request rate limit.
type StageGenerator struct {
	client  TextClient
	rules   *guidelines.Rules
	limiter *rate.Limiter
	timeout time.Duration
	retry   resilience.RetryConfig
}

// New creates a StageGenerator.
func New(client TextClient, rules *guidelines.Rules, cfg config.GeneratorConfig) *StageGenerator {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	return &StageGenerator{
		client:  client,
		rules:   rules,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		retry:   retry,
	}
}

func (g *StageGenerator) Generate(ctx context.Context, stage model.Stage, product *model.Product, in Inputs) (string, error) {
	system, prompt, err := buildPrompt(stage, g.rules, product, in)
	if err != nil {
		return "", err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrapf(err, "generate: rate limit wait for %s", stage)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (string, error) {
		return g.client.Complete(ctx, system, prompt)
	})
	if err != nil {
		return "", eris.Wrapf(err, "generate: %s stage for product %s", stage, product.ID)
	}

	zap.L().Info("generate: stage complete",
		zap.String("product", product.ID),
		zap.String("stage", string(stage)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
