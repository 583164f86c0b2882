// Package pipeline orchestrates bulk enrichment: one pass over an
// ordered work list, emitting a progress event stream, pausing for
// cooldowns, and isolating per-item failures.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-enrich/internal/cache"
	"github.com/sells-group/catalog-enrich/internal/cooldown"
	"github.com/sells-group/catalog-enrich/internal/lookup"
	"github.com/sells-group/catalog-enrich/internal/merge"
	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/stream"
)

// Options tunes batch pacing. Zero values take the defaults below.
type Options struct {
	// CooldownEvery pauses the batch after this many expensive
	// successes. Cache hits and failures do not count.
	CooldownEvery int

	// CooldownSecs is the advertised pause length sent to clients.
	CooldownSecs int

	// CourtesyDelay spaces consecutive expensive lookups.
	CourtesyDelay time.Duration
}

const (
	defaultCooldownEvery = 20
	defaultCooldownSecs  = 60
	defaultCourtesyDelay = 500 * time.Millisecond
)

// Summary is the terminal accounting for one batch. The three counters
// partition the work list: every item lands in exactly one.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Orchestrator runs work lists through the gate, the invoker, and the
// merger, in order, one item at a time.
type Orchestrator struct {
	gate     *cache.Gate
	invoker  lookup.Invoker
	merger   *merge.Merger
	cooldown *cooldown.Coordinator
	limiter  *rate.Limiter
	opts     Options
}

// New creates an orchestrator. gate may be nil when no store is
// configured; every item then takes the expensive path.
func New(gate *cache.Gate, invoker lookup.Invoker, merger *merge.Merger, coord *cooldown.Coordinator, opts Options) *Orchestrator {
	if opts.CooldownEvery <= 0 {
		opts.CooldownEvery = defaultCooldownEvery
	}
	if opts.CooldownSecs <= 0 {
		opts.CooldownSecs = defaultCooldownSecs
	}
	if opts.CourtesyDelay <= 0 {
		opts.CourtesyDelay = defaultCourtesyDelay
	}
	return &Orchestrator{
		gate:     gate,
		invoker:  invoker,
		merger:   merger,
		cooldown: coord,
		limiter:  rate.NewLimiter(rate.Every(opts.CourtesyDelay), 1),
		opts:     opts,
	}
}

// Run processes targets in order and emits one event per state change.
// Item failures are contained: the batch continues and the terminal
// complete event is always emitted. A non-nil error means the batch
// itself aborted — the stream died or the context was cancelled.
func (o *Orchestrator) Run(ctx context.Context, targets []model.Target, em stream.Emitter) (Summary, error) {
	var sum Summary
	sinceCooldown := 0
	total := len(targets)

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "pipeline: batch cancelled")
		}

		if err := em.Emit(model.NewProcessing(target.Display(), i+1, total)); err != nil {
			return sum, err
		}

		if o.gate != nil {
			if p, ok := o.gate.Lookup(ctx, target); ok {
				sum.Skipped++
				if err := em.Emit(model.NewCompleted(target.Display(), p, true)); err != nil {
					return sum, err
				}
				continue
			}
		}

		// Space expensive calls out; the first reservation is free.
		if err := o.limiter.Wait(ctx); err != nil {
			return sum, eris.Wrap(err, "pipeline: batch cancelled")
		}

		p, err := o.enrich(ctx, target)
		if err != nil {
			sum.Failed++
			zap.L().Warn("pipeline: item failed",
				zap.String("target", target.Display()),
				zap.Error(err))
			if err := em.Emit(model.NewFailed(target.Display(), err.Error())); err != nil {
				return sum, err
			}
			continue
		}

		sum.Succeeded++
		sinceCooldown++
		if err := em.Emit(model.NewCompleted(target.Display(), p, false)); err != nil {
			return sum, err
		}

		// Pause only between items, never after the last one.
		if sinceCooldown >= o.opts.CooldownEvery && i < total-1 {
			sinceCooldown = 0
			if err := o.pause(ctx, em, sum.Succeeded+sum.Skipped); err != nil {
				return sum, err
			}
		}
	}

	if err := em.Emit(model.NewComplete(sum.Succeeded, sum.Failed, sum.Skipped)); err != nil {
		return sum, err
	}
	return sum, nil
}

// enrich runs the expensive path for one target: provider analyses,
// merge, slug, persist. Persistence failure is logged but does not fail
// the item — the profile was already produced.
func (o *Orchestrator) enrich(ctx context.Context, target model.Target) (*model.Profile, error) {
	analyses, err := o.invoker.Analyze(ctx, target)
	if err != nil {
		return nil, err
	}

	p := o.merger.Merge(target, analyses)
	if p == nil {
		return nil, eris.Errorf("pipeline: no analyses to merge for %q", target.Display())
	}
	p.Slug = cache.Slug(target.Name, target.City())

	if o.gate != nil {
		if err := o.gate.Store(ctx, p); err != nil {
			zap.L().Warn("pipeline: persist failed",
				zap.String("slug", p.Slug),
				zap.Error(err))
		}
	}
	return p, nil
}

// pause emits a cooldown event and blocks until the token resolves: an
// out-of-band resume call, the safety timer, or context cancellation.
func (o *Orchestrator) pause(ctx context.Context, em stream.Emitter, processed int) error {
	token := o.cooldown.Begin()

	if err := em.Emit(model.NewCooldown(token.ID(), o.opts.CooldownSecs, processed)); err != nil {
		// Nobody will ever see the request id; release the token so the
		// table does not hold it until the safety timer.
		o.cooldown.Resume(token.ID())
		return err
	}

	select {
	case <-token.Done():
		return nil
	case <-ctx.Done():
		o.cooldown.Resume(token.ID())
		return eris.Wrap(ctx.Err(), "pipeline: batch cancelled during cooldown")
	}
}
