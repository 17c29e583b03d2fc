// Package artifacts derives the top-level support files from the pages a run
// generated: sitemap.xml, robots.txt and the hosting rewrite files.
package artifacts

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/prerender/internal/fsutil"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/report"
)

// Artifact file names.
const (
	Sitemap   = "sitemap.xml"
	Robots    = "robots.txt"
	Vercel    = "vercel.json"
	Redirects = "_redirects"
)

// Route maps a public path to the document that serves it.
type Route struct {
	Path string
	File string
}

// Options configures one generation pass.
type Options struct {
	OutputDir string
	Origin    string
	RunDate   time.Time
	// Retained lists documents kept from a previous run; they get routes but no
	// sitemap entries.
	Retained []Route
}

type artifact struct {
	name  string
	build func(outcomes []report.PageOutcome, opts Options) ([]byte, error)
}

var all = []artifact{
	{Sitemap, buildSitemap},
	{Robots, buildRobots},
	{Vercel, buildVercel},
	{Redirects, buildRedirects},
}

// GenerateSupportFiles writes every artifact from the successful outcomes in rep.
// A failing artifact is recorded in rep and does not stop the others. The names of
// artifacts written are returned and stored in rep.Artifacts.
func GenerateSupportFiles(rep *report.BuildReport, opts Options) []string {
	outcomes := rep.SuccessfulOutcomes()
	written := make([]string, 0, len(all))
	for _, a := range all {
		err := rep.Try("artifact "+a.name, func() error {
			data, err := a.build(outcomes, opts)
			if err != nil {
				return err
			}
			return fsutil.WriteAtomic(filepath.Join(opts.OutputDir, a.name), data, 0o644)
		})
		if err == nil {
			written = append(written, a.name)
			slog.Debug("Artifact written", logfields.Artifact(a.name))
		}
	}
	rep.Artifacts = append(rep.Artifacts, written...)
	return written
}

// Routes returns one route per outcome followed by the retained routes, in order.
func Routes(outcomes []report.PageOutcome, retained []Route) []Route {
	seen := make(map[string]bool, len(outcomes)+len(retained))
	routes := make([]Route, 0, len(outcomes)+len(retained))
	add := func(r Route) {
		if seen[r.Path] {
			return
		}
		seen[r.Path] = true
		routes = append(routes, r)
	}
	for _, o := range outcomes {
		add(Route{Path: o.PublicPath, File: "/" + o.FileName})
	}
	for _, r := range retained {
		add(r)
	}
	return routes
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod"`
	Priority string `xml:"priority"`
}

// Priority ranks the root page above every other page.
func Priority(o report.PageOutcome) float64 {
	switch {
	case o.PublicPath == "/":
		return 1.0
	case o.Kind == report.KindCategory:
		return 0.6
	default:
		return 0.8
	}
}

func buildSitemap(outcomes []report.PageOutcome, opts Options) ([]byte, error) {
	origin := strings.TrimSuffix(opts.Origin, "/")
	date := opts.RunDate.UTC().Format(time.DateOnly)
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, o := range outcomes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:      origin + o.PublicPath,
			LastMod:  date,
			Priority: fmt.Sprintf("%.1f", Priority(o)),
		})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func buildRobots(_ []report.PageOutcome, opts Options) ([]byte, error) {
	origin := strings.TrimSuffix(opts.Origin, "/")
	if origin == "" {
		return nil, fmt.Errorf("robots: site origin is empty")
	}
	return fmt.Appendf(nil, "User-agent: *\nAllow: /\n\nSitemap: %s/%s\n", origin, Sitemap), nil
}

type vercelConfig struct {
	Rewrites []vercelRewrite `json:"rewrites"`
}

type vercelRewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// CatchAll is the final single-page-app rule in every rewrite artifact.
var CatchAll = Route{Path: "/(.*)", File: "/index.html"}

func buildVercel(outcomes []report.PageOutcome, opts Options) ([]byte, error) {
	cfg := vercelConfig{}
	for _, r := range Routes(outcomes, opts.Retained) {
		cfg.Rewrites = append(cfg.Rewrites, vercelRewrite{Source: r.Path, Destination: r.File})
	}
	cfg.Rewrites = append(cfg.Rewrites, vercelRewrite{Source: CatchAll.Path, Destination: CatchAll.File})
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode vercel.json: %w", err)
	}
	return append(body, '\n'), nil
}

func buildRedirects(outcomes []report.PageOutcome, opts Options) ([]byte, error) {
	var b strings.Builder
	for _, r := range Routes(outcomes, opts.Retained) {
		fmt.Fprintf(&b, "%s  %s  200\n", r.Path, r.File)
	}
	fmt.Fprintf(&b, "/*  %s  200\n", CatchAll.File)
	return []byte(b.String()), nil
}
