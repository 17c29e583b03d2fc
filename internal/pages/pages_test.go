package pages

import (
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	defs, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	assert.Equal(t, "", defs[0].Slug, "root page sorts first")
	var hasIndex bool
	for _, d := range defs {
		assert.NotEmpty(t, d.Description, d.Source)
		n := utf8.RuneCountInString(d.Title)
		assert.True(t, n >= 20 && n <= 70, "%s title length %d", d.Source, n)
		n = utf8.RuneCountInString(d.Description)
		assert.True(t, n >= 50 && n <= 160, "%s description length %d", d.Source, n)
		if d.Index == IndexCategories {
			hasIndex = true
		}
	}
	assert.True(t, hasIndex)
}

func TestLoadFS_DuplicateSlug(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": {Data: []byte("---\nslug: about\ntitle: A\nheading: A\n---\n")},
		"b.md": {Data: []byte("---\nslug: about\ntitle: B\nheading: B\n---\n")},
	}
	_, err := LoadFS(fsys, ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `slug "about"`)
}

func TestLoadFS_Ordering(t *testing.T) {
	fsys := fstest.MapFS{
		"z.md": {Data: []byte("---\nslug: zeta\norder: 1\ntitle: Z\nheading: Z\n---\n")},
		"b.md": {Data: []byte("---\nslug: beta\norder: 1\ntitle: B\nheading: B\n---\n")},
		"r.md": {Data: []byte("---\nslug: \"\"\ntitle: R\nheading: R\n---\n")},
	}
	defs, err := LoadFS(fsys, ".")
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, []string{"", "beta", "zeta"}, []string{defs[0].Slug, defs[1].Slug, defs[2].Slug})
}

func TestLoadFS_Empty(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{}, ".")
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	def, err := Parse([]byte("---\r\nslug: faq\r\ntitle: FAQ\r\nheading: Questions\r\nfaq:\r\n  - q: Why?\r\n    a: Because.\r\n---\r\nBody text\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "faq", def.Slug)
	assert.Equal(t, []FAQ{{Question: "Why?", Answer: "Because."}}, def.FAQ)
	assert.Equal(t, "Body text\n", def.Body)

	_, err = Parse([]byte("---\ntitle: x\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)

	_, err = Parse([]byte("no frontmatter"))
	require.Error(t, err)
}

func TestFileNameAndPublicPath(t *testing.T) {
	assert.Equal(t, "index.html", FileName(""))
	assert.Equal(t, "about.html", FileName("about"))
	assert.Equal(t, "/", PublicPath(""))
	assert.Equal(t, "/about", PublicPath("about"))
}
