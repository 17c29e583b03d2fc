package qa

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/prerender/internal/config"
)

// Rule checks a single parsed document.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string
	// Check returns the findings for doc.
	Check(doc *Document) []Issue
}

// DefaultRules returns the document rule set with thresholds from cfg.
func DefaultRules(cfg config.QAConfig) []Rule {
	return []Rule{
		&LanguageRule{},
		&TitleRule{Min: cfg.TitleMin, Max: cfg.TitleMax},
		&DescriptionRule{Min: cfg.DescriptionMin, Max: cfg.DescriptionMax},
		&HeadingRule{},
		&CanonicalRule{},
		&StructuredDataRule{},
		&SocialPreviewRule{},
		&SkipLinkRule{},
	}
}

func issue(doc *Document, r Rule, sev Severity, format string, args ...any) Issue {
	return Issue{FileName: doc.FileName, Severity: sev, Rule: r.Name(), Message: fmt.Sprintf(format, args...)}
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// LanguageRule requires a lang attribute on the root element.
type LanguageRule struct{}

func (r *LanguageRule) Name() string { return "html-lang" }

func (r *LanguageRule) Check(doc *Document) []Issue {
	if trimmedAttr(doc.Sel.Find("html").First(), "lang") == "" {
		return []Issue{issue(doc, r, SeverityBlocking, "missing language attribute")}
	}
	return nil
}

// TitleRule bounds the document title: too short or missing blocks, too long warns.
type TitleRule struct{ Min, Max int }

func (r *TitleRule) Name() string { return "title-length" }

func (r *TitleRule) Check(doc *Document) []Issue {
	title := collapse(doc.Sel.Find("head title").First().Text())
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return []Issue{issue(doc, r, SeverityBlocking, "missing title")}
	case n < r.Min:
		return []Issue{issue(doc, r, SeverityBlocking, "title too short (%d < %d characters)", n, r.Min)}
	case r.Max > 0 && n > r.Max:
		return []Issue{issue(doc, r, SeverityWarning, "title too long (%d > %d characters)", n, r.Max)}
	}
	return nil
}

// DescriptionRule bounds the meta description with the same split as TitleRule.
type DescriptionRule struct{ Min, Max int }

func (r *DescriptionRule) Name() string { return "meta-description" }

func (r *DescriptionRule) Check(doc *Document) []Issue {
	desc := doc.Meta("name", "description")
	n := utf8.RuneCountInString(desc)
	switch {
	case n == 0:
		return []Issue{issue(doc, r, SeverityBlocking, "missing meta description")}
	case n < r.Min:
		return []Issue{issue(doc, r, SeverityBlocking, "meta description too short (%d < %d characters)", n, r.Min)}
	case r.Max > 0 && n > r.Max:
		return []Issue{issue(doc, r, SeverityWarning, "meta description too long (%d > %d characters)", n, r.Max)}
	}
	return nil
}

// HeadingRule requires exactly one non-empty top-level heading.
type HeadingRule struct{}

func (r *HeadingRule) Name() string { return "h1" }

func (r *HeadingRule) Check(doc *Document) []Issue {
	h1 := doc.Sel.Find("h1")
	nonEmpty := h1.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return collapse(s.Text()) != ""
	}).Length()
	switch {
	case nonEmpty == 0:
		return []Issue{issue(doc, r, SeverityBlocking, "missing top-level heading")}
	case nonEmpty > 1:
		return []Issue{issue(doc, r, SeverityWarning, "%d top-level headings", nonEmpty)}
	}
	return nil
}

// CanonicalRule requires an absolute canonical link.
type CanonicalRule struct{}

func (r *CanonicalRule) Name() string { return "canonical" }

func (r *CanonicalRule) Check(doc *Document) []Issue {
	href := trimmedAttr(doc.Sel.Find(`link[rel="canonical"]`).First(), "href")
	if href == "" {
		return []Issue{issue(doc, r, SeverityBlocking, "missing canonical link")}
	}
	if u, err := url.Parse(href); err != nil || !u.IsAbs() || u.Host == "" {
		return []Issue{issue(doc, r, SeverityBlocking, "canonical link %q is not absolute", href)}
	}
	return nil
}

// StructuredDataRule requires at least one JSON-LD block, each a typed object.
type StructuredDataRule struct{}

func (r *StructuredDataRule) Name() string { return "structured-data" }

func (r *StructuredDataRule) Check(doc *Document) []Issue {
	blocks := doc.Sel.Find(`script[type="application/ld+json"]`)
	if blocks.Length() == 0 {
		return []Issue{issue(doc, r, SeverityBlocking, "missing structured data")}
	}
	var issues []Issue
	blocks.Each(func(i int, s *goquery.Selection) {
		if err := validateLD([]byte(strings.TrimSpace(s.Text()))); err != nil {
			issues = append(issues, issue(doc, r, SeverityBlocking, "malformed structured data block %d: %v", i+1, err))
		}
	})
	return issues
}

func validateLD(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	objects := []any{v}
	if arr, ok := v.([]any); ok {
		objects = arr
	}
	if len(objects) == 0 {
		return fmt.Errorf("empty payload")
	}
	for _, o := range objects {
		m, ok := o.(map[string]any)
		if !ok {
			return fmt.Errorf("expected an object")
		}
		if _, ok := m["@graph"]; ok {
			continue
		}
		if t, _ := m["@type"].(string); t == "" {
			if _, isList := m["@type"].([]any); !isList {
				return fmt.Errorf("missing @type")
			}
		}
	}
	return nil
}

// SocialPreviewRule requires the primary Open Graph tags.
type SocialPreviewRule struct{}

func (r *SocialPreviewRule) Name() string { return "social-preview" }

func (r *SocialPreviewRule) Check(doc *Document) []Issue {
	var issues []Issue
	for _, p := range []string{"og:title", "og:description", "og:url"} {
		if doc.Meta("property", p) == "" {
			issues = append(issues, issue(doc, r, SeverityBlocking, "missing %s", p))
		}
	}
	return issues
}

// SkipLinkRule looks for an in-page skip-navigation link. Absence only warns.
type SkipLinkRule struct{}

func (r *SkipLinkRule) Name() string { return "skip-link" }

func (r *SkipLinkRule) Check(doc *Document) []Issue {
	found := doc.Sel.Find(`a[href^="#"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.Contains(strings.ToLower(class), "skip") ||
			strings.Contains(strings.ToLower(s.Text()), "skip")
	}).Length() > 0
	if !found {
		return []Issue{issue(doc, r, SeverityWarning, "missing skip-navigation link")}
	}
	return nil
}
