package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-enrich/internal/cache"
	"github.com/sells-group/catalog-enrich/internal/cooldown"
	"github.com/sells-group/catalog-enrich/internal/lookup"
	"github.com/sells-group/catalog-enrich/internal/merge"
	"github.com/sells-group/catalog-enrich/internal/pipeline"
	"github.com/sells-group/catalog-enrich/internal/resilience"
	"github.com/sells-group/catalog-enrich/internal/store"
	anthropicpkg "github.com/sells-group/catalog-enrich/pkg/anthropic"
	"github.com/sells-group/catalog-enrich/pkg/jina"
	"github.com/sells-group/catalog-enrich/pkg/perplexity"
)

// enrichEnv holds the initialized store, clients, and orchestrator
// shared by the run/bulk/serve commands.
type enrichEnv struct {
	Store        store.Store
	Gate         *cache.Gate
	Coordinator  *cooldown.Coordinator
	Orchestrator *pipeline.Orchestrator
}

// Close releases resources held by the environment.
func (e *enrichEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "catalog.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnrich sets up the store, the provider clients, and the
// orchestrator. Callers should defer env.Close().
func initEnrich(ctx context.Context) (*enrichEnv, error) {
	if cfg.Perplexity.Key == "" {
		return nil, eris.New("perplexity API key is required (CATALOG_PERPLEXITY_KEY)")
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (CATALOG_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model))

	var jinaClient jina.Client
	if cfg.Jina.Key != "" {
		jinaClient = jina.NewClient(cfg.Jina.Key, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	} else {
		zap.L().Debug("CATALOG_JINA_KEY not set, jina provider disabled")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	retryCfg := resilience.DefaultRetryConfig()
	if cfg.Lookup.RetryAttempts > 0 {
		retryCfg.MaxAttempts = cfg.Lookup.RetryAttempts
	}
	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	if cfg.Lookup.BreakerThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.Lookup.BreakerThreshold
	}

	invoker := lookup.NewService(perplexityClient, jinaClient, anthropicClient, lookup.Options{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		MaxJinaHits: cfg.Lookup.MaxJinaHits,
		Retry:       retryCfg,
		Breaker:     breakerCfg,
	})

	merger := merge.New(merge.Policy{MinNarrativeChars: cfg.Merge.MinNarrativeChars})

	gate := cache.NewGate(st, time.Duration(cfg.Cache.TTLHours)*time.Hour)

	coord := cooldown.NewCoordinator(time.Duration(cfg.Pipeline.CooldownCeilingSecs) * time.Second)

	orch := pipeline.New(gate, invoker, merger, coord, pipeline.Options{
		CooldownEvery: cfg.Pipeline.CooldownEvery,
		CooldownSecs:  cfg.Pipeline.CooldownSecs,
		CourtesyDelay: time.Duration(cfg.Pipeline.CourtesyDelayMS) * time.Millisecond,
	})

	return &enrichEnv{
		Store:        st,
		Gate:         gate,
		Coordinator:  coord,
		Orchestrator: orch,
	}, nil
}
