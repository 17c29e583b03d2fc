package qa

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML file.
type Document struct {
	FileName string
	Root     *html.Node
	Sel      *goquery.Document
}

// ParseDocument parses content as HTML.
func ParseDocument(fileName string, content []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	return &Document{FileName: fileName, Root: root, Sel: goquery.NewDocumentFromNode(root)}, nil
}

// Meta returns the trimmed content of the first meta tag matching attr=value.
func (d *Document) Meta(attr, value string) string {
	var out string
	d.Sel.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && v == value {
			out = trimmedAttr(s, "content")
			return false
		}
		return true
	})
	return out
}

func trimmedAttr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return collapse(v)
}
