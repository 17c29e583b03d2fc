package site

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/prerender/internal/artifacts"
	"git.home.luguber.info/inful/prerender/internal/source"
)

// retainedSlug extracts the category slug from a prior category document path.
func retainedSlug(doc string) (string, bool) {
	rest, ok := strings.CutPrefix(filepath.Base(doc), "category-")
	if !ok {
		return "", false
	}
	slug, ok := strings.CutSuffix(rest, ".html")
	if !ok || slug == "" {
		return "", false
	}
	return slug, true
}

// RetainedRoutes maps category documents kept from a previous run back to their
// public routes so a fallback run still serves them.
func RetainedRoutes(docs []string) []artifacts.Route {
	routes := make([]artifacts.Route, 0, len(docs))
	for _, doc := range docs {
		slug, ok := retainedSlug(doc)
		if !ok {
			continue
		}
		routes = append(routes, artifacts.Route{Path: CategoryPublicPath(slug), File: "/" + filepath.Base(doc)})
	}
	return routes
}

// retainedCategories rebuilds slug-only records for prior category documents so
// the category index keeps linking them while the source is down.
func retainedCategories(docs []string) []source.CategoryRecord {
	recs := make([]source.CategoryRecord, 0, len(docs))
	for _, doc := range docs {
		if slug, ok := retainedSlug(doc); ok {
			recs = append(recs, source.CategoryRecord{Slug: slug})
		}
	}
	return recs
}
