package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/listing-cli/internal/cache"
	"github.com/sells-group/listing-cli/internal/catalog"
	"github.com/sells-group/listing-cli/internal/config"
	"github.com/sells-group/listing-cli/internal/generate"
	"github.com/sells-group/listing-cli/internal/guidelines"
	"github.com/sells-group/listing-cli/internal/pipeline"
	"github.com/sells-group/listing-cli/internal/store"
	"github.com/sells-group/listing-cli/pkg/anthropic"
	"github.com/sells-group/listing-cli/pkg/gemini"
)

// env bundles the wired application components a command needs.
type env struct {
	Catalog      catalog.Store
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("closing store", zap.Error(err))
	}
}

// initEnv validates config for mode, opens the catalog and store, builds the
// generator for the configured provider, and recovers interrupted cycles.
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	products, err := catalog.NewFromFile(cfg.Catalog.Path, cfg.Catalog.SheetName)
	if err != nil {
		return nil, err
	}
	zap.L().Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("products", products.Count()),
	)

	rules, err := loadRules(cfg.Guidelines)
	if err != nil {
		return nil, err
	}

	client, err := newTextClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	gen := generate.New(client, rules, cfg.Generator)
	orch := pipeline.NewOrchestrator(st, cache.New(st), products, gen, cfg.Pipeline)

	if err := orch.Recover(ctx); err != nil {
		st.Close()
		return nil, err
	}

	return &env{Catalog: products, Store: st, Orchestrator: orch}, nil
}

func loadRules(gc config.GuidelinesConfig) (*guidelines.Rules, error) {
	if gc.Path == "" {
		return guidelines.Defaults(), nil
	}
	return guidelines.Load(gc.Path)
}

func newTextClient(ctx context.Context, cfg *config.Config) (generate.TextClient, error) {
	switch cfg.Generator.Provider {
	case "anthropic":
		return anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Generator.MaxTokens), nil
	case "gemini":
		return gemini.NewClient(ctx, cfg.Gemini.Key, cfg.Gemini.Model, cfg.Generator.MaxTokens)
	default:
		return nil, eris.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}
