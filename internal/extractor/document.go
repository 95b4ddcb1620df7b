package extractor

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed snapshot of a page's DOM
type Document struct {
	URL  *url.URL
	Root *html.Node
}

// Host returns the lowercased hostname of the page, without port
func (d *Document) Host() string {
	if d == nil || d.URL == nil {
		return ""
	}
	return strings.ToLower(d.URL.Hostname())
}

// ParseDocument parses markup served at pageURL
func ParseDocument(pageURL string, r io.Reader) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}
	return &Document{URL: u, Root: root}, nil
}

// DocumentSource gives the extractor access to the live page. URL is cheap;
// Document captures the DOM as it is at call time.
type DocumentSource interface {
	URL(ctx context.Context) (*url.URL, error)
	Document(ctx context.Context) (*Document, error)
}

// StaticSource serves a fixed document
type StaticSource struct {
	doc *Document
}

// NewStaticSource parses markup once and serves it for every request
func NewStaticSource(pageURL, markup string) (*StaticSource, error) {
	doc, err := ParseDocument(pageURL, strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &StaticSource{doc: doc}, nil
}

// URL implements DocumentSource
func (s *StaticSource) URL(ctx context.Context) (*url.URL, error) {
	return s.doc.URL, nil
}

// Document implements DocumentSource
func (s *StaticSource) Document(ctx context.Context) (*Document, error) {
	return s.doc, nil
}
