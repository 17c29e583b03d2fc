// Package pages holds the fixed page table: build-time known pages defined as
// markdown documents with YAML frontmatter.
package pages

import (
	"bytes"
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.md
var embedded embed.FS

// IndexCategories marks the page that lists every category.
const IndexCategories = "categories"

// FAQ is a question/answer pair rendered into the page body and its structured data.
type FAQ struct {
	Question string `yaml:"q"`
	Answer   string `yaml:"a"`
}

// Definition is one fixed page.
type Definition struct {
	Slug        string `yaml:"slug"`
	Order       int    `yaml:"order"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Heading     string `yaml:"heading"`
	Intro       string `yaml:"intro"`
	Image       string `yaml:"image"`
	SchemaType  string `yaml:"schema_type"`
	Index       string `yaml:"index"`
	FAQ         []FAQ  `yaml:"faq"`
	Body        string `yaml:"-"`
	Source      string `yaml:"-"`
}

// ErrMissingClosingDelimiter indicates an opening --- without a matching close.
var ErrMissingClosingDelimiter = stderrors.New("frontmatter closing delimiter is missing")

// Load reads every *.md page from dir, or the embedded table when dir is empty.
// Pages are ordered by Order then Slug; duplicate slugs are rejected.
func Load(dir string) ([]Definition, error) {
	var fsys fs.FS = embedded
	root := "content"
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	}
	return LoadFS(fsys, root)
}

// LoadFS reads every *.md page under root in fsys.
func LoadFS(fsys fs.FS, root string) ([]Definition, error) {
	names, err := fs.Glob(fsys, path.Join(root, "*.md"))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no page definitions found in %s", root)
	}

	defs := make([]Definition, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[def.Slug]; dup {
			return nil, fmt.Errorf("%s: slug %q already defined by %s", name, def.Slug, prev)
		}
		seen[def.Slug] = name
		def.Source = name
		defs = append(defs, def)
	}
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Order != defs[j].Order {
			return defs[i].Order < defs[j].Order
		}
		return defs[i].Slug < defs[j].Slug
	})
	return defs, nil
}

// Parse decodes one page document.
func Parse(content []byte) (Definition, error) {
	fm, body, err := split(content)
	if err != nil {
		return Definition{}, err
	}
	var def Definition
	if err := yaml.Unmarshal(fm, &def); err != nil {
		return Definition{}, fmt.Errorf("decode frontmatter: %w", err)
	}
	if def.Title == "" || def.Heading == "" {
		return Definition{}, stderrors.New("title and heading are required")
	}
	def.Body = string(body)
	return def, nil
}

// split separates `---` delimited YAML frontmatter from the markdown body.
func split(content []byte) ([]byte, []byte, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	open := []byte("---\n")
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], nil
	}
	idx := bytes.Index(rest, []byte("\n---\n"))
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-3], nil, nil
		}
		return nil, nil, ErrMissingClosingDelimiter
	}
	return rest[:idx+1], rest[idx+len("\n---\n"):], nil
}

// FileName maps a page slug to its output document.
func FileName(slug string) string {
	if slug == "" {
		return "index.html"
	}
	return slug + ".html"
}

// PublicPath maps a page slug to the path it is served at.
func PublicPath(slug string) string {
	return "/" + slug
}
