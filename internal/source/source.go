// Package source is the read-only boundary to the marketplace backend: the list of
// categories and per-category aggregates over active listings.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// CategoryRecord is one category row as published by the backend.
type CategoryRecord struct {
	Slug           string          `json:"slug" db:"slug"`
	Title          string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	ImageURL       string          `json:"image_url" db:"image_url"`
	StructuredData json.RawMessage `json:"schema_json,omitempty" db:"-"`
}

// CategoryStat aggregates active listings of one category.
type CategoryStat struct {
	Count             int   `json:"count" db:"count"`
	AveragePriceMinor int64 `json:"average_price_minor" db:"avg_price"`
	AverageAuthorityA int   `json:"average_authority_a" db:"avg_authority_a"`
	AverageAuthorityB int   `json:"average_authority_b" db:"avg_authority_b"`
}

// Source queries categories and their listing statistics.
type Source interface {
	Categories(ctx context.Context) ([]CategoryRecord, error)
	CategoryStats(ctx context.Context, slug string) (CategoryStat, error)
	Close() error
}

// New returns the Source selected by cfg.Driver. The Postgres driver opens lazily,
// so an unreachable database surfaces on the first query rather than here.
func New(cfg config.SourceConfig, client *http.Client) (Source, error) {
	switch cfg.Driver {
	case config.SourceDriverREST, "":
		return NewREST(cfg.URL, cfg.Key, client)
	case config.SourceDriverPostgres:
		return OpenPostgres(cfg.URL)
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown source driver %q", cfg.Driver)).
			WithContext("driver", string(cfg.Driver)).Build()
	}
}

func clampScore(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Normalize enforces CategoryStat ranges on values computed upstream.
func (s CategoryStat) Normalize() CategoryStat {
	if s.Count < 0 {
		s.Count = 0
	}
	if s.AveragePriceMinor < 0 {
		s.AveragePriceMinor = 0
	}
	s.AverageAuthorityA = clampScore(s.AverageAuthorityA)
	s.AverageAuthorityB = clampScore(s.AverageAuthorityB)
	return s
}
