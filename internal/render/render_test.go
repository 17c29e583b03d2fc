package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prerender/internal/report"
)

func sampleDescriptor() PageDescriptor {
	return PageDescriptor{
		Slug:         "category-tech",
		Kind:         report.KindCategory,
		Title:        "Technology backlinks | Backlinks Market",
		Description:  "Buy placements on technology blogs with verified authority scores and transparent prices.",
		Heading:      "Technology backlinks",
		Intro:        "  Guest posts on tech blogs.  ",
		Body:         "## Market snapshot\n\n- **12** active listings\n",
		CanonicalURL: "https://backlinks.market/category/tech",
		StructuredData: map[string]any{
			"@context": "https://schema.org",
			"@type":    "CollectionPage",
			"name":     "Technology </script> backlinks",
		},
		Language: "en",
		SiteName: "Backlinks Market",
	}
}

func parse(t *testing.T, doc []byte) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(string(doc)))
	require.NoError(t, err)
	return d
}

func TestRender_Idempotent(t *testing.T) {
	tmpl := Default()
	d := sampleDescriptor()
	a, err := Render(d, tmpl, "body{margin:0}")
	require.NoError(t, err)
	b, err := Render(d, tmpl, "body{margin:0}")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRender_DocumentShape(t *testing.T) {
	out, err := Render(sampleDescriptor(), Default(), "")
	require.NoError(t, err)
	doc := parse(t, out)

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Technology backlinks | Backlinks Market", doc.Find("title").Text())
	assert.Equal(t, "https://backlinks.market/category/tech", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Equal(t, "product.group", doc.Find(`meta[property="og:type"]`).AttrOr("content", ""))
	assert.Equal(t, "Technology backlinks", doc.Find("h1").Text())
	assert.Equal(t, "Guest posts on tech blogs.", doc.Find("p.intro").Text())
	assert.Equal(t, 1, doc.Find("main h2").Length())
	assert.Equal(t, 1, doc.Find(`a.skip-link[href="#main"]`).Length())
	assert.Equal(t, 0, doc.Find("style").Length())

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &ld))
	assert.Equal(t, "CollectionPage", ld["@type"])
	assert.Equal(t, "Technology </script> backlinks", ld["name"])
}

func TestRender_ImageFragmentOnlyWhenPresent(t *testing.T) {
	d := sampleDescriptor()
	d.ImageURL = "   "
	out, err := Render(d, Default(), "")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "og:image")
	assert.Contains(t, string(out), `content="summary"`)

	d.ImageURL = " https://img.example/tech.png "
	out, err = Render(d, Default(), "")
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Equal(t, "https://img.example/tech.png", doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
}

func TestRender_EscapesText(t *testing.T) {
	d := sampleDescriptor()
	d.Heading = `<img src=x onerror=alert(1)>`
	d.Body = "<script>alert(1)</script>\n\nplain"
	out, err := Render(d, Default(), "")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<img src=x")
	assert.NotContains(t, string(out), "<script>alert(1)</script>")
}

func TestRender_UnresolvedPlaceholderFails(t *testing.T) {
	tmpl, err := Parse(`<html>{{.Title}} {{.Subtitle}}</html>`)
	require.NoError(t, err)
	_, err = Render(sampleDescriptor(), tmpl, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Subtitle")
}

func TestRender_NilTemplate(t *testing.T) {
	_, err := Render(sampleDescriptor(), nil, "")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	tmpl, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, tmpl)

	path := filepath.Join(t.TempDir(), "page.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`<title>{{.Title}}</title>`), 0o600))
	tmpl, err = Load(path)
	require.NoError(t, err)
	out, err := Render(sampleDescriptor(), tmpl, "")
	require.NoError(t, err)
	assert.Equal(t, "<title>Technology backlinks | Backlinks Market</title>", string(out))

	_, err = Load(filepath.Join(t.TempDir(), "missing.tmpl"))
	require.Error(t, err)

	_, err = Parse(`{{.Title`)
	require.Error(t, err)
}
