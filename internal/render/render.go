// Package render turns a PageDescriptor into a complete HTML document. Rendering is
// pure: identical inputs always produce identical bytes and nothing is read or
// written outside the returned document.
package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/prerender/internal/report"
)

//go:embed templates/page.html.tmpl
var defaultTemplate string

// PageDescriptor is the unit of generation. Slug uniquely identifies the output document.
type PageDescriptor struct {
	Slug           string
	Kind           report.PageKind
	Title          string
	Description    string
	Heading        string
	Intro          string
	Body           string // markdown
	CanonicalURL   string
	StructuredData any
	ImageURL       string
	Language       string
	SiteName       string
}

type view struct {
	Lang           string
	SiteName       string
	Title          string
	Description    string
	Heading        string
	Intro          string
	Canonical      string
	OGType         string
	Image          string
	Body           template.HTML
	StructuredData template.JS
	Styles         template.CSS
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Parse compiles document template text. Referencing an unknown field fails at
// render time.
func Parse(text string) (*template.Template, error) {
	t, err := template.New("page").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return t, nil
}

// Default returns the embedded document template.
func Default() *template.Template {
	return template.Must(Parse(defaultTemplate))
}

// Load reads the template at path, or returns Default when path is empty.
func Load(path string) (*template.Template, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- template path from config
	if err != nil {
		return nil, fmt.Errorf("read page template: %w", err)
	}
	return Parse(string(data))
}

// Render substitutes d into tmpl. Optional fields that are blank after trimming
// drop their fragments entirely.
func Render(d PageDescriptor, tmpl *template.Template, criticalStyles string) ([]byte, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("render %q: nil template", d.Slug)
	}
	data := d.StructuredData
	if data == nil {
		data = map[string]any{}
	}
	ld, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("render %q: structured data: %w", d.Slug, err)
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(d.Body), &body); err != nil {
		return nil, fmt.Errorf("render %q: body markdown: %w", d.Slug, err)
	}

	ogType := "website"
	if d.Kind == report.KindCategory {
		ogType = "product.group"
	}

	v := view{
		Lang:           d.Language,
		SiteName:       d.SiteName,
		Title:          d.Title,
		Description:    d.Description,
		Heading:        d.Heading,
		Intro:          strings.TrimSpace(d.Intro),
		Canonical:      d.CanonicalURL,
		OGType:         ogType,
		Image:          strings.TrimSpace(d.ImageURL),
		Body:           template.HTML(body.String()), // #nosec G203 -- goldmark output with raw HTML disabled
		StructuredData: template.JS(ld),              // #nosec G203 -- json.Marshal escapes <, > and &
		Styles:         template.CSS(strings.TrimSpace(criticalStyles)),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, v); err != nil {
		return nil, fmt.Errorf("render %q: %w", d.Slug, err)
	}
	return out.Bytes(), nil
}
