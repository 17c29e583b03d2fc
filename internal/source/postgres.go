package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

const (
	defaultMaxOpenConns    = 4
	defaultConnMaxLifetime = 5 * time.Minute
)

const categoriesQuery = `SELECT slug, name, COALESCE(description, '') AS description,
	COALESCE(image_url, '') AS image_url, COALESCE(schema_json::text, '') AS schema_json
FROM categories
ORDER BY name`

const statsQuery = `SELECT COUNT(*) AS count,
	COALESCE(ROUND(AVG(price_cents)), 0)::bigint AS avg_price,
	COALESCE(ROUND(AVG(domain_rating)), 0)::int AS avg_authority_a,
	COALESCE(ROUND(AVG(domain_authority)), 0)::int AS avg_authority_b
FROM listings
WHERE category_slug = $1 AND status = 'active'`

// PostgresSource queries the backend database directly.
type PostgresSource struct {
	db *sqlx.DB
}

// OpenPostgres prepares a connection pool for dsn without dialing.
func OpenPostgres(dsn string) (*PostgresSource, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.ConfigError("invalid postgres source").WithCause(err).Build()
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	return NewPostgres(db), nil
}

// NewPostgres wraps an existing handle.
func NewPostgres(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

type categoryRow struct {
	Slug        string `db:"slug"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ImageURL    string `db:"image_url"`
	SchemaJSON  string `db:"schema_json"`
}

// Categories lists every category ordered by name.
func (s *PostgresSource) Categories(ctx context.Context) ([]CategoryRecord, error) {
	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, categoriesQuery); err != nil {
		return nil, errors.SourceError("query categories").WithCause(err).Build()
	}
	out := make([]CategoryRecord, 0, len(rows))
	for _, r := range rows {
		rec := CategoryRecord{Slug: r.Slug, Title: r.Name, Description: r.Description, ImageURL: r.ImageURL}
		if r.SchemaJSON != "" && json.Valid([]byte(r.SchemaJSON)) {
			rec.StructuredData = json.RawMessage(r.SchemaJSON)
		}
		out = append(out, rec)
	}
	return out, nil
}

// CategoryStats aggregates active listings for slug in SQL.
func (s *PostgresSource) CategoryStats(ctx context.Context, slug string) (CategoryStat, error) {
	var st CategoryStat
	if err := s.db.GetContext(ctx, &st, statsQuery, slug); err != nil {
		return CategoryStat{}, errors.SourceError(fmt.Sprintf("query stats for %s", slug)).WithCause(err).Build()
	}
	return st.Normalize(), nil
}

// Close releases the pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
