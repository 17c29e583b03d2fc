package qa

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

const validDoc = `<!DOCTYPE html>
<html lang="en">
<head>
<title>{{TITLE}}</title>
<meta name="description" content="Buy guest posts and niche edits on vetted websites with transparent prices.">
<link rel="canonical" href="https://backlinks.market/about">
<meta property="og:title" content="About">
<meta property="og:description" content="About us">
<meta property="og:url" content="https://backlinks.market/about">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebPage"}</script>
</head>
<body><a class="skip-link" href="#main">Skip to content</a><main id="main"><h1>About</h1></main></body>
</html>`

const goodTitle = "About Backlinks Market | Transparent"

func qaConfig() config.QAConfig {
	return config.QAConfig{
		TitleMin:          20,
		TitleMax:          70,
		DescriptionMin:    50,
		DescriptionMax:    160,
		RequiredArtifacts: []string{"sitemap.xml", "robots.txt", "vercel.json", "_redirects"},
	}
}

func writeSite(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://backlinks.market/</loc></url></urlset>`,
		"robots.txt":  "User-agent: *\nAllow: /\n\nSitemap: https://backlinks.market/sitemap.xml\n",
		"vercel.json": `{"rewrites":[{"source":"/about","destination":"/about.html"},{"source":"/(.*)","destination":"/index.html"}]}`,
		"_redirects":  "/about  /about.html  200\n/*  /index.html  200\n",
	}
	for name, body := range docs {
		files[name] = body
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func doc(title string) string { return strings.Replace(validDoc, "{{TITLE}}", title, 1) }

func validate(t *testing.T, dir string) *Result {
	t.Helper()
	res, err := NewValidator(qaConfig()).Validate(dir)
	require.NoError(t, err)
	return res
}

func TestValidate_CleanSiteAccepts(t *testing.T) {
	res := validate(t, writeSite(t, map[string]string{"index.html": doc(goodTitle), "about.html": doc(goodTitle)}))
	assert.Empty(t, res.Issues)
	assert.Equal(t, 2, res.DocumentsChecked)
	assert.Equal(t, Accept, res.Outcome())
	assert.InDelta(t, 100.0, res.Score(), 1e-9)
	assert.NoError(t, res.Err())
}

func TestValidate_MissingCanonicalRejects(t *testing.T) {
	broken := strings.Replace(doc(goodTitle), `<link rel="canonical" href="https://backlinks.market/about">`, "", 1)
	res := validate(t, writeSite(t, map[string]string{"index.html": doc(goodTitle), "about.html": broken}))

	require.Len(t, res.Issues, 1)
	assert.Equal(t, "about.html", res.Issues[0].FileName)
	assert.Equal(t, SeverityBlocking, res.Issues[0].Severity)
	assert.Equal(t, "missing canonical link", res.Issues[0].Message)
	assert.Equal(t, Reject, res.Outcome())

	err := res.Err()
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, errors.CategoryQA, errors.GetCategory(err))
	assert.Equal(t, errors.ExitRejected, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestValidate_TitleBounds(t *testing.T) {
	short := "Backlinks market"[:15]
	long := strings.Repeat("x", 85)

	res := validate(t, writeSite(t, map[string]string{"index.html": doc(short)}))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, SeverityBlocking, res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "title too short")
	assert.Equal(t, Reject, res.Outcome())

	res = validate(t, writeSite(t, map[string]string{"index.html": doc(long)}))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, SeverityWarning, res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "title too long")
	assert.Equal(t, AcceptWithWarnings, res.Outcome())
	assert.NoError(t, res.Err())
	assert.InDelta(t, 100.0, res.Score(), 1e-9)
}

func TestValidate_ScoreMonotonic(t *testing.T) {
	docs := map[string]string{"index.html": doc(goodTitle), "about.html": doc(goodTitle), "faq.html": doc(goodTitle)}
	prev := validate(t, writeSite(t, docs)).Score()

	mutations := []func(string) string{
		func(s string) string { return strings.Replace(s, `lang="en"`, "", 1) },
		func(s string) string { return strings.Replace(s, "<h1>About</h1>", "", 1) },
		func(s string) string {
			return strings.Replace(s, `{"@context":"https://schema.org","@type":"WebPage"}`, `{not json`, 1)
		},
	}
	current := doc(goodTitle)
	for i, m := range mutations {
		current = m(current)
		docs["about.html"] = current
		res := validate(t, writeSite(t, docs))
		assert.Equal(t, i+1, res.BlockingCount())
		assert.Less(t, res.Score(), prev)
		assert.Equal(t, Reject, res.Outcome())
		prev = res.Score()
	}
}

func TestValidate_DocumentRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(string) string
		severity Severity
		message  string
	}{
		{"no description", func(s string) string {
			return strings.Replace(s, `<meta name="description" content="Buy guest posts and niche edits on vetted websites with transparent prices.">`, "", 1)
		}, SeverityBlocking, "missing meta description"},
		{"short description", func(s string) string {
			return strings.Replace(s, "Buy guest posts and niche edits on vetted websites with transparent prices.", "Too short.", 1)
		}, SeverityBlocking, "meta description too short"},
		{"long description", func(s string) string {
			return strings.Replace(s, "Buy guest posts and niche edits on vetted websites with transparent prices.", strings.Repeat("long ", 40), 1)
		}, SeverityWarning, "meta description too long"},
		{"relative canonical", func(s string) string {
			return strings.Replace(s, `href="https://backlinks.market/about">`, `href="/about">`, 1)
		}, SeverityBlocking, "is not absolute"},
		{"no structured data", func(s string) string {
			return strings.Replace(s, `<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebPage"}</script>`, "", 1)
		}, SeverityBlocking, "missing structured data"},
		{"untyped structured data", func(s string) string {
			return strings.Replace(s, `"@type":"WebPage"`, `"name":"x"`, 1)
		}, SeverityBlocking, "missing @type"},
		{"no og:url", func(s string) string {
			return strings.Replace(s, `<meta property="og:url" content="https://backlinks.market/about">`, "", 1)
		}, SeverityBlocking, "missing og:url"},
		{"no skip link", func(s string) string {
			return strings.Replace(s, `<a class="skip-link" href="#main">Skip to content</a>`, "", 1)
		}, SeverityWarning, "missing skip-navigation link"},
		{"two headings", func(s string) string {
			return strings.Replace(s, "<h1>About</h1>", "<h1>About</h1><h1>Again</h1>", 1)
		}, SeverityWarning, "2 top-level headings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validate(t, writeSite(t, map[string]string{"index.html": tt.mutate(doc(goodTitle))}))
			require.Len(t, res.Issues, 1, "%+v", res.Issues)
			assert.Equal(t, tt.severity, res.Issues[0].Severity)
			assert.Contains(t, res.Issues[0].Message, tt.message)
		})
	}
}

func TestValidate_RequiredArtifacts(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": doc(goodTitle)})
	require.NoError(t, os.Remove(filepath.Join(dir, "vercel.json")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "robots.txt"), []byte("User-agent: *\nDisallow: /\n"), 0o600))

	res := validate(t, dir)
	var messages []string
	for _, is := range res.Issues {
		messages = append(messages, is.Severity.String()+": "+is.Message)
	}
	assert.ElementsMatch(t, []string{
		"blocking: required artifact vercel.json is missing",
		"blocking: robots policy disallows the site root",
		"warning: robots policy does not reference a sitemap",
	}, messages)
	assert.Equal(t, Reject, res.Outcome())
}

func TestValidate_ExcludeAndHidden(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": doc(goodTitle), "legacy.html": "<html></html>"})
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".cache"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cache", "x.html"), []byte("<html></html>"), 0o600))

	cfg := qaConfig()
	cfg.Exclude = []string{"legacy.html"}
	res, err := NewValidator(cfg).Validate(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DocumentsChecked)
	assert.Empty(t, res.Issues)

	_, err = NewValidator(cfg).Validate(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestFormatters(t *testing.T) {
	res := validate(t, writeSite(t, map[string]string{"index.html": doc("Short title")}))

	var text bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&text, res))
	assert.Contains(t, text.String(), "✗ index.html")
	assert.Contains(t, text.String(), "BLOCKING [title-length]")
	assert.Contains(t, text.String(), "1 blocking issue\n")
	assert.Contains(t, text.String(), "Release rejected")

	var out bytes.Buffer
	require.NoError(t, NewFormatter("JSON").Format(&out, res))
	var decoded struct {
		Outcome string  `json:"outcome"`
		Score   float64 `json:"score"`
		Issues  []struct {
			Severity string `json:"severity"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "reject", decoded.Outcome)
	assert.InDelta(t, 50.0, decoded.Score, 1e-9)
	require.Len(t, decoded.Issues, 1)
	assert.Equal(t, "blocking", decoded.Issues[0].Severity)
}
