// Package cache implements the gate that short-circuits expensive
// lookups when a fresh profile already exists. Reads go through an
// in-memory TTL layer first, then the store; freshness is judged by the
// profile's enriched_at timestamp.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/store"
)

// Gate fronts the store with a freshness check and a hot in-memory layer.
type Gate struct {
	store store.Store
	mem   *gocache.Cache
	ttl   time.Duration
}

// NewGate creates a cache gate. ttl bounds how old a stored profile may
// be before the pipeline re-enriches it.
func NewGate(st store.Store, ttl time.Duration) *Gate {
	return &Gate{
		store: st,
		mem:   gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Lookup returns a fresh profile for the target, or (nil, false) when
// the expensive path must run. Store errors are treated as misses — a
// broken cache must never fail an item.
func (g *Gate) Lookup(ctx context.Context, target model.Target) (*model.Profile, bool) {
	slug := Slug(target.Name, target.City())

	if v, ok := g.mem.Get(slug); ok {
		if p, ok := v.(*model.Profile); ok && g.fresh(p) {
			return p, true
		}
		g.mem.Delete(slug)
	}

	p, err := g.store.GetProfile(ctx, slug)
	if err != nil {
		zap.L().Warn("cache: store lookup failed", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}
	if p == nil || !g.fresh(p) {
		return nil, false
	}

	g.mem.SetDefault(slug, p)
	return p, true
}

// Store persists a newly merged profile and warms the memory layer.
func (g *Gate) Store(ctx context.Context, p *model.Profile) error {
	if err := g.store.SaveProfile(ctx, p); err != nil {
		return err
	}
	g.mem.SetDefault(p.Slug, p)
	return nil
}

func (g *Gate) fresh(p *model.Profile) bool {
	if g.ttl <= 0 {
		return true
	}
	return time.Since(p.EnrichedAt) < g.ttl
}
