// Package site drives generation of every fixed and per-category page into the
// output directory, recording one PageOutcome per attempt.
package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/fetch"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/fsutil"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/pages"
	"git.home.luguber.info/inful/prerender/internal/render"
	"git.home.luguber.info/inful/prerender/internal/report"
	"git.home.luguber.info/inful/prerender/internal/source"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// CategoryFileName maps a category slug to its output document.
func CategoryFileName(slug string) string { return "category-" + slug + ".html" }

// CategoryPublicPath maps a category slug to the path it is served at.
func CategoryPublicPath(slug string) string { return "/category/" + slug }

// Generator renders pages for one run. It holds no per-run state; the report is
// passed to GenerateAll.
type Generator struct {
	outputDir string
	site      config.SiteConfig
	tmpl      *template.Template
	styles    string
	pages     []pages.Definition
	fetcher   *fetch.Fetcher
	text      *textCleaner
}

// New creates a Generator writing into outputDir.
func New(outputDir string, site config.SiteConfig, tmpl *template.Template, styles string, defs []pages.Definition, fetcher *fetch.Fetcher) *Generator {
	return &Generator{
		outputDir: outputDir,
		site:      site,
		tmpl:      tmpl,
		styles:    styles,
		pages:     defs,
		fetcher:   fetcher,
		text:      newTextCleaner(site.Language, site.Currency),
	}
}

// GenerateAll writes every fixed page, then every category page unless the fetch
// fell back to prior output. Per-page failures are recorded and skipped; only an
// unusable output directory or a fatal fetch failure is returned.
func (g *Generator) GenerateAll(ctx context.Context, rep *report.BuildReport) (fetch.Result, error) {
	if err := os.MkdirAll(g.outputDir, 0o750); err != nil {
		return fetch.Result{}, errors.FileSystemError("create output directory").WithCause(err).
			WithContext("path", g.outputDir).Fatal().Build()
	}

	res, err := g.fetcher.FetchCategories(ctx, rep)
	if err != nil {
		return fetch.Result{}, err
	}

	for _, def := range g.pages {
		g.generateStatic(def, res, rep)
	}

	if res.SkipCategories() {
		slog.Warn("Skipping category regeneration; prior pages stand",
			slog.Int("prior_pages", len(res.PriorDocuments)))
		return res, nil
	}

	seen := make(map[string]bool, len(res.Categories))
	for _, rec := range res.Categories {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		slug := strings.TrimSpace(rec.Slug)
		if seen[slug] {
			rep.Attempt(CategoryFileName(slug), CategoryPublicPath(slug), report.KindCategory, func(*report.PageOutcome) error {
				return fmt.Errorf("duplicate category slug %q", slug)
			})
			continue
		}
		seen[slug] = true
		g.generateCategory(ctx, rec, rep)
	}
	return res, nil
}

func (g *Generator) generateStatic(def pages.Definition, res fetch.Result, rep *report.BuildReport) {
	d := g.staticDescriptor(def, res)
	rep.Attempt(pages.FileName(def.Slug), pages.PublicPath(def.Slug), report.KindStatic, func(o *report.PageOutcome) error {
		return g.write(d, o)
	})
}

func (g *Generator) generateCategory(ctx context.Context, rec source.CategoryRecord, rep *report.BuildReport) {
	slug := strings.TrimSpace(rec.Slug)
	o := rep.Attempt(CategoryFileName(slug), CategoryPublicPath(slug), report.KindCategory, func(o *report.PageOutcome) error {
		if !slugPattern.MatchString(slug) {
			return fmt.Errorf("invalid category slug %q", rec.Slug)
		}
		st := g.fetcher.CategoryStats(ctx, rep, slug)
		return g.write(g.categoryDescriptor(rec, st), o)
	})
	if o.Status == report.PageSuccess {
		rep.CategoriesProcessed++
		slog.Debug("Category generated", logfields.Category(slug))
	}
}

func (g *Generator) write(d render.PageDescriptor, o *report.PageOutcome) error {
	doc, err := render.Render(d, g.tmpl, g.styles)
	if err != nil {
		return errors.RenderError("render page").WithCause(err).WithContext("slug", d.Slug).Build()
	}
	if err := fsutil.WriteAtomic(filepath.Join(g.outputDir, o.FileName), doc, 0o644); err != nil {
		return errors.FileSystemError("write page").WithCause(err).WithContext("file", o.FileName).Build()
	}
	o.SizeBytes = int64(len(doc))
	o.Fingerprint = fingerprint(d, doc)
	return nil
}

func (g *Generator) canonical(publicPath string) string {
	return strings.TrimSuffix(g.site.Origin, "/") + publicPath
}

func fingerprint(d render.PageDescriptor, doc []byte) string {
	meta, err := yaml.Marshal(map[string]string{
		"slug":        d.Slug,
		"title":       d.Title,
		"description": d.Description,
		"canonical":   d.CanonicalURL,
	})
	if err != nil {
		return ""
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(meta), "\n"), string(doc))
}
