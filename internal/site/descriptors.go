package site

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/prerender/internal/fetch"
	"git.home.luguber.info/inful/prerender/internal/pages"
	"git.home.luguber.info/inful/prerender/internal/render"
	"git.home.luguber.info/inful/prerender/internal/report"
	"git.home.luguber.info/inful/prerender/internal/source"
)

const (
	minDescription = 50
	maxDescription = 160
)

func (g *Generator) staticDescriptor(def pages.Definition, res fetch.Result) render.PageDescriptor {
	canonical := g.canonical(pages.PublicPath(def.Slug))
	schemaType := def.SchemaType
	if schemaType == "" {
		schemaType = "WebPage"
	}
	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       schemaType,
		"name":        def.Title,
		"description": def.Description,
		"url":         canonical,
		"inLanguage":  g.site.Language,
	}

	var body strings.Builder
	body.WriteString(def.Body)

	if len(def.FAQ) > 0 {
		entities := make([]map[string]any, 0, len(def.FAQ))
		for _, f := range def.FAQ {
			fmt.Fprintf(&body, "\n### %s\n\n%s\n", f.Question, f.Answer)
			entities = append(entities, map[string]any{
				"@type":          "Question",
				"name":           f.Question,
				"acceptedAnswer": map[string]any{"@type": "Answer", "text": f.Answer},
			})
		}
		ld["mainEntity"] = entities
	}

	if def.Index == pages.IndexCategories {
		cats := res.Categories
		if res.SkipCategories() {
			cats = retainedCategories(res.PriorDocuments)
		}
		items := make([]map[string]any, 0, len(cats))
		seen := make(map[string]bool, len(cats))
		var links strings.Builder
		for _, rec := range cats {
			if !slugPattern.MatchString(rec.Slug) || seen[rec.Slug] {
				continue
			}
			seen[rec.Slug] = true
			name := g.text.categoryName(rec)
			path := CategoryPublicPath(rec.Slug)
			fmt.Fprintf(&links, "- [%s](%s)\n", escapeMarkdown(name), path)
			items = append(items, map[string]any{
				"@type":    "ListItem",
				"position": len(items) + 1,
				"name":     name,
				"url":      g.canonical(path),
			})
		}
		if len(items) == 0 {
			body.WriteString("\nCategory listings are being refreshed. Check back shortly.\n")
		} else {
			body.WriteString("\n")
			body.WriteString(links.String())
		}
		ld["mainEntity"] = map[string]any{
			"@type":           "ItemList",
			"numberOfItems":   len(items),
			"itemListElement": items,
		}
	}

	image := def.Image
	if image == "" {
		image = g.site.DefaultImage
	}
	return render.PageDescriptor{
		Slug:           def.Slug,
		Kind:           report.KindStatic,
		Title:          def.Title,
		Description:    def.Description,
		Heading:        def.Heading,
		Intro:          def.Intro,
		Body:           body.String(),
		CanonicalURL:   canonical,
		StructuredData: ld,
		ImageURL:       image,
		Language:       g.site.Language,
		SiteName:       g.site.Name,
	}
}

func (g *Generator) categoryDescriptor(rec source.CategoryRecord, st source.CategoryStat) render.PageDescriptor {
	name := g.text.categoryName(rec)
	upstream := g.text.plain(rec.Description)
	price := g.text.price(st.AveragePriceMinor)
	canonical := g.canonical(CategoryPublicPath(rec.Slug))

	description := upstream
	if n := utf8.RuneCountInString(description); n < minDescription || n > maxDescription {
		description = fmt.Sprintf("Compare %d active %s backlink listings. Average price %s, average authority score %d.",
			st.Count, name, price, st.AverageAuthorityA)
	}

	ld := map[string]any{}
	if len(rec.StructuredData) > 0 {
		var fragment map[string]any
		if err := json.Unmarshal(rec.StructuredData, &fragment); err == nil {
			for k, v := range fragment {
				ld[k] = v
			}
		}
	}
	ld["@context"] = "https://schema.org"
	if _, ok := ld["@type"]; !ok {
		ld["@type"] = "CollectionPage"
	}
	ld["name"] = name + " backlinks"
	ld["description"] = description
	ld["url"] = canonical
	ld["inLanguage"] = g.site.Language
	ld["mainEntity"] = map[string]any{
		"@type":         "AggregateOffer",
		"offerCount":    st.Count,
		"priceCurrency": g.text.currencyCode(),
		"price":         g.text.decimal(st.AveragePriceMinor),
	}

	body := fmt.Sprintf(`## Market snapshot

| Metric | Value |
|---|---|
| Active listings | %d |
| Average price | %s |
| Average authority score | %d |
| Average domain rating | %d |

[Browse all categories](/marketplace)
`, st.Count, price, st.AverageAuthorityA, st.AverageAuthorityB)

	image := strings.TrimSpace(rec.ImageURL)
	if image == "" {
		image = g.site.DefaultImage
	}
	return render.PageDescriptor{
		Slug:           rec.Slug,
		Kind:           report.KindCategory,
		Title:          fmt.Sprintf("%s backlinks | %s", name, g.site.Name),
		Description:    description,
		Heading:        name + " backlinks",
		Intro:          upstream,
		Body:           body,
		CanonicalURL:   canonical,
		StructuredData: ld,
		ImageURL:       image,
		Language:       g.site.Language,
		SiteName:       g.site.Name,
	}
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
