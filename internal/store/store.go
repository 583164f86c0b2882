// Package store persists merged profiles. Two backends exist: SQLite
// (embedded, default) and Postgres (shared deployments).
package store

import (
	"context"

	"github.com/sells-group/catalog-enrich/internal/model"
)

// ProfileFilter specifies criteria for listing profiles.
type ProfileFilter struct {
	Kind   string `json:"kind,omitempty"`
	City   string `json:"city,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
// GetProfile returns (nil, nil) when no profile exists for the slug —
// absence is not an error; the cache gate relies on that.
type Store interface {
	SaveProfile(ctx context.Context, p *model.Profile) error
	GetProfile(ctx context.Context, slug string) (*model.Profile, error)
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.Profile, error)

	Migrate(ctx context.Context) error
	Close() error
}
