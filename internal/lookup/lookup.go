// Package lookup implements the expensive per-target analysis: fan out
// to the AI search providers, then structure each provider's raw answer
// into a SourceAnalysis via Claude.
package lookup

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/resilience"
	"github.com/sells-group/catalog-enrich/pkg/anthropic"
	"github.com/sells-group/catalog-enrich/pkg/jina"
	"github.com/sells-group/catalog-enrich/pkg/perplexity"
)

// Invoker is the expensive analysis capability the pipeline depends on.
// Implementations return one SourceAnalysis per provider that answered.
type Invoker interface {
	Analyze(ctx context.Context, target model.Target) ([]model.SourceAnalysis, error)
}

// Options tunes the lookup service.
type Options struct {
	Model       string // Claude model used for structuring
	MaxTokens   int64
	MaxJinaHits int // search results folded into the Jina raw text
	Retry       resilience.RetryConfig
	Breaker     resilience.CircuitBreakerConfig
}

// Service queries Perplexity and Jina in parallel for one target and
// structures whatever came back. A per-provider circuit breaker keeps a
// failing provider from slowing every item in a batch.
type Service struct {
	perplexity perplexity.Client
	jina       jina.Client
	anthropic  anthropic.Client
	opts       Options

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewService creates a lookup service over the given provider clients.
// jinaClient may be nil when only one provider is configured.
func NewService(pplx perplexity.Client, jinaClient jina.Client, ai anthropic.Client, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	if opts.MaxJinaHits <= 0 {
		opts.MaxJinaHits = 5
	}
	return &Service{
		perplexity: pplx,
		jina:       jinaClient,
		anthropic:  ai,
		opts:       opts,
		breakers:   make(map[string]*resilience.CircuitBreaker),
	}
}

// Analyze runs every configured provider for the target. Provider
// failures are tolerated as long as at least one analysis comes back.
func (s *Service) Analyze(ctx context.Context, target model.Target) ([]model.SourceAnalysis, error) {
	query := target.Display()

	var mu sync.Mutex
	var analyses []model.SourceAnalysis
	collect := func(a *model.SourceAnalysis) {
		mu.Lock()
		analyses = append(analyses, *a)
		mu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, err := s.askPerplexity(gCtx, query)
		if err != nil {
			zap.L().Warn("lookup: perplexity failed", zap.String("target", query), zap.Error(err))
			return nil
		}
		a, err := s.structure(gCtx, target, "perplexity", raw)
		if err != nil {
			zap.L().Warn("lookup: structuring perplexity answer failed", zap.String("target", query), zap.Error(err))
			return nil
		}
		collect(a)
		return nil
	})

	if s.jina != nil {
		g.Go(func() error {
			raw, err := s.searchJina(gCtx, query)
			if err != nil {
				zap.L().Warn("lookup: jina failed", zap.String("target", query), zap.Error(err))
				return nil
			}
			a, err := s.structure(gCtx, target, "jina", raw)
			if err != nil {
				zap.L().Warn("lookup: structuring jina results failed", zap.String("target", query), zap.Error(err))
				return nil
			}
			collect(a)
			return nil
		})
	}

	_ = g.Wait()

	if len(analyses) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "lookup: cancelled")
		}
		return nil, eris.Errorf("lookup: no provider produced an analysis for %q", query)
	}
	return analyses, nil
}

func (s *Service) askPerplexity(ctx context.Context, query string) (string, error) {
	cb := s.breaker("perplexity")
	return resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (string, error) {
			return s.perplexity.Ask(ctx, researchSystemPrompt, researchUserPrompt(query))
		})
	})
}

func (s *Service) searchJina(ctx context.Context, query string) (string, error) {
	cb := s.breaker("jina")
	results, err := resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) ([]jina.SearchResult, error) {
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) ([]jina.SearchResult, error) {
			return s.jina.Search(ctx, query)
		})
	})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", eris.Errorf("lookup: no search results for %q", query)
	}

	var b strings.Builder
	for i, r := range results {
		if i >= s.opts.MaxJinaHits {
			break
		}
		b.WriteString("## " + r.Title + "\n")
		if r.Description != "" {
			b.WriteString(r.Description + "\n")
		}
		if r.Content != "" {
			b.WriteString(r.Content + "\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *Service) breaker(provider string) *resilience.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[provider]
	if !ok {
		cb = resilience.NewCircuitBreaker(s.opts.Breaker)
		s.breakers[provider] = cb
	}
	return cb
}
