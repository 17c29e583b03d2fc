package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

const maxResponseBytes = 10 * 1024 * 1024

// RESTSource reads from a PostgREST endpoint (base URL + /rest/v1).
type RESTSource struct {
	base   *url.URL
	key    string
	client *http.Client
}

// NewHTTPClient creates an HTTP client with safe defaults.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// NewREST validates baseURL and returns a PostgREST-backed Source.
func NewREST(baseURL, key string, client *http.Client) (*RESTSource, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("source url must be an absolute http(s) URL").
			WithContext("url", baseURL).Build()
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.ConfigError("source url scheme must be http or https").
			WithContext("scheme", u.Scheme).Build()
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &RESTSource{base: u, key: key, client: client}, nil
}

// Categories lists every category ordered by name.
func (s *RESTSource) Categories(ctx context.Context) ([]CategoryRecord, error) {
	q := url.Values{}
	q.Set("select", "slug,name,description,image_url,schema_json")
	q.Set("order", "name.asc")

	var rows []CategoryRecord
	if err := s.get(ctx, "categories", q, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		if string(rows[i].StructuredData) == "null" {
			rows[i].StructuredData = nil
		}
	}
	return rows, nil
}

type listingRow struct {
	PriceMinor      *int64   `json:"price_cents"`
	DomainRating    *float64 `json:"domain_rating"`
	DomainAuthority *float64 `json:"domain_authority"`
}

// CategoryStats averages the active listings of one category.
func (s *RESTSource) CategoryStats(ctx context.Context, slug string) (CategoryStat, error) {
	q := url.Values{}
	q.Set("select", "price_cents,domain_rating,domain_authority")
	q.Set("category_slug", "eq."+slug)
	q.Set("status", "eq.active")

	var rows []listingRow
	if err := s.get(ctx, "listings", q, &rows); err != nil {
		return CategoryStat{}, err
	}
	return aggregate(rows), nil
}

// Close is a no-op; the HTTP client is shared.
func (s *RESTSource) Close() error { return nil }

func aggregate(rows []listingRow) CategoryStat {
	var (
		price, rating, authority    float64
		nPrice, nRating, nAuthority int
	)
	for _, r := range rows {
		if r.PriceMinor != nil {
			price += float64(*r.PriceMinor)
			nPrice++
		}
		if r.DomainRating != nil {
			rating += *r.DomainRating
			nRating++
		}
		if r.DomainAuthority != nil {
			authority += *r.DomainAuthority
			nAuthority++
		}
	}
	return CategoryStat{
		Count:             len(rows),
		AveragePriceMinor: int64(mean(price, nPrice)),
		AverageAuthorityA: int(mean(rating, nRating)),
		AverageAuthorityB: int(mean(authority, nAuthority)),
	}.Normalize()
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum / float64(n))
}

func (s *RESTSource) get(ctx context.Context, table string, q url.Values, out any) error {
	endpoint := *s.base
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/rest/v1/" + table
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.key != "" {
		req.Header.Set("apikey", s.key)
		req.Header.Set("Authorization", "Bearer "+s.key)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.SourceError("source request failed").WithCause(err).
			WithContext("table", table).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		b := errors.SourceError(fmt.Sprintf("source returned HTTP %d for %s", resp.StatusCode, table)).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			b = b.WithRetry(errors.RetryNever)
		}
		return b.Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return errors.SourceError("read source response").WithCause(err).Build()
	}
	if len(body) > maxResponseBytes {
		return errors.SourceError("source response too large").WithRetry(errors.RetryNever).Build()
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.SourceError("decode source response").WithCause(err).
			WithRetry(errors.RetryNever).WithContext("table", table).Build()
	}
	return nil
}
