// Package sourcetest provides an in-memory source.Source for tests.
package sourcetest

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/prerender/internal/source"
)

// Fake serves fixed categories and stats. Set CategoriesErr to simulate an outage
// and StatsErr[slug] to fail a single category.
type Fake struct {
	mu            sync.Mutex
	Records       []source.CategoryRecord
	Stats         map[string]source.CategoryStat
	CategoriesErr error
	StatsErr      map[string]error
	Calls         map[string]int
}

var _ source.Source = (*Fake)(nil)

func (f *Fake) count(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[key]++
}

// Categories returns Records or CategoriesErr.
func (f *Fake) Categories(ctx context.Context) ([]source.CategoryRecord, error) {
	f.count("categories")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.CategoriesErr != nil {
		return nil, f.CategoriesErr
	}
	return append([]source.CategoryRecord(nil), f.Records...), nil
}

// CategoryStats returns Stats[slug] or StatsErr[slug].
func (f *Fake) CategoryStats(ctx context.Context, slug string) (source.CategoryStat, error) {
	f.count("stats:" + slug)
	if err := ctx.Err(); err != nil {
		return source.CategoryStat{}, err
	}
	if err := f.StatsErr[slug]; err != nil {
		return source.CategoryStat{}, err
	}
	return f.Stats[slug], nil
}

// Close is a no-op.
func (f *Fake) Close() error { return nil }

// CallCount returns how often key was queried ("categories" or "stats:<slug>").
func (f *Fake) CallCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[key]
}
