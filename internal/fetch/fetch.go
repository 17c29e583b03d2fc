// Package fetch obtains category data for a run and decides between regenerating
// category pages and falling back to what the previous run published.
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/report"
	"git.home.luguber.info/inful/prerender/internal/retry"
	"git.home.luguber.info/inful/prerender/internal/source"
)

// ErrSourceUnavailable means the source could not be reached and there is no prior
// output to keep serving. It is fatal to the run.
var ErrSourceUnavailable = stderrors.New("source unavailable and no prior category pages exist")

// CategoryGlob matches category documents in an output directory.
const CategoryGlob = "category-*.html"

// Outcome tags a fetch result.
type Outcome int

const (
	// Fetched means the source answered; Categories may legitimately be empty.
	Fetched Outcome = iota
	// Fallback means the source was unreachable and prior category pages stand.
	Fallback
)

func (o Outcome) String() string {
	if o == Fallback {
		return "fallback"
	}
	return "fetched"
}

// Result is the tagged outcome of FetchCategories.
type Result struct {
	Outcome        Outcome
	Categories     []source.CategoryRecord
	PriorDocuments []string
	Cause          error
}

// SkipCategories reports whether category regeneration must be skipped this run.
func (r Result) SkipCategories() bool { return r.Outcome == Fallback }

// Fetcher wraps a Source with bounded retries and the fallback policy.
type Fetcher struct {
	src       source.Source
	policy    retry.Policy
	outputDir string
}

// New creates a Fetcher. outputDir is where the previous run's pages live.
func New(src source.Source, policy retry.Policy, outputDir string) *Fetcher {
	return &Fetcher{src: src, policy: policy, outputDir: outputDir}
}

// FetchCategories returns every category, or a Fallback result when the source is
// down and prior category pages exist. With no prior pages the failure is fatal and
// wraps ErrSourceUnavailable.
func (f *Fetcher) FetchCategories(ctx context.Context, rep *report.BuildReport) (Result, error) {
	var cats []source.CategoryRecord
	attempts, err := f.policy.Do(ctx, "fetch categories", func(ctx context.Context) error {
		var ferr error
		cats, ferr = f.src.Categories(ctx)
		return ferr
	})
	if err == nil {
		rep.SourceConnected = true
		slog.Info("Fetched categories", slog.Int("count", len(cats)), logfields.Attempt(attempts))
		return Result{Outcome: Fetched, Categories: cats}, nil
	}

	rep.SourceConnected = false
	// Rejected credentials or an undecodable response are not an outage.
	if !errors.IsRetryable(err) && ctx.Err() == nil {
		return Result{}, errors.WrapError(err, errors.CategorySource, "data source rejected the category query").
			Fatal().
			WithRetry(errors.RetryNever).
			WithContext("attempts", attempts).
			Build()
	}
	slog.Warn("Source unavailable", logfields.Attempt(attempts), logfields.Error(err))

	prior, globErr := PriorCategoryDocuments(f.outputDir)
	if globErr != nil {
		slog.Warn("Could not inspect prior output", logfields.Path(f.outputDir), logfields.Error(globErr))
	}
	if len(prior) == 0 {
		return Result{}, errors.WrapError(fmt.Errorf("%w: %w", ErrSourceUnavailable, err), errors.CategorySource,
			"data source unreachable and no fallback content available").
			Fatal().
			WithRetry(errors.RetryNever).
			WithContext("attempts", attempts).
			WithContext("output_dir", f.outputDir).
			Build()
	}

	rep.AddFallback("source unavailable: reused %d prior category pages", len(prior))
	rep.AddWarning("category regeneration skipped: %v", err)
	slog.Warn("Falling back to prior output", slog.Int("prior_pages", len(prior)))
	return Result{Outcome: Fallback, PriorDocuments: prior, Cause: err}, nil
}

// CategoryStats never fails the caller: on error the failure is recorded against
// the category and a zero-valued stat is returned.
func (f *Fetcher) CategoryStats(ctx context.Context, rep *report.BuildReport, slug string) source.CategoryStat {
	var st source.CategoryStat
	err := rep.Try("category "+slug+" stats", func() error {
		_, err := f.policy.Do(ctx, "fetch stats "+slug, func(ctx context.Context) error {
			var serr error
			st, serr = f.src.CategoryStats(ctx, slug)
			return serr
		})
		return err
	})
	if err != nil {
		rep.AddWarning("category %s rendered with zero-valued stats", slug)
		slog.Warn("Using zero-valued stats", logfields.Category(slug))
		return source.CategoryStat{}
	}
	return st.Normalize()
}

// PriorCategoryDocuments lists category documents already present in dir, sorted.
// A missing directory yields none.
func PriorCategoryDocuments(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, CategoryGlob))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && info.Mode().IsRegular() {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
