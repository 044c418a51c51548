// Package sitemap parses sitemap XML documents into catalog entries.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Document is the parsed form of one sitemap file. Exactly one of Entries or
// Children is populated depending on the root element.
type Document struct {
	Entries  []ripper.CatalogEntry
	Children []string
}

type xmlDocument struct {
	XMLName  xml.Name
	URLs     []xmlURL   `xml:"url"`
	Sitemaps []xmlChild `xml:"sitemap"`
}

type xmlURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type xmlChild struct {
	Loc string `xml:"loc"`
}

// Parse decodes a <urlset> or <sitemapindex> document. Entries without a
// <loc> are dropped; <lastmod> text is kept raw for the engine's skip check.
func Parse(data []byte) (Document, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse sitemap xml: %w", err)
	}

	switch doc.XMLName.Local {
	case "urlset":
		entries := make([]ripper.CatalogEntry, 0, len(doc.URLs))
		for _, u := range doc.URLs {
			loc := strings.TrimSpace(u.Loc)
			if loc == "" {
				continue
			}
			entries = append(entries, ripper.CatalogEntry{
				URL:     loc,
				LastMod: strings.TrimSpace(u.LastMod),
			})
		}
		return Document{Entries: entries}, nil
	case "sitemapindex":
		children := make([]string, 0, len(doc.Sitemaps))
		for _, s := range doc.Sitemaps {
			loc := strings.TrimSpace(s.Loc)
			if loc == "" {
				continue
			}
			children = append(children, loc)
		}
		return Document{Children: children}, nil
	default:
		return Document{}, fmt.Errorf("unrecognized sitemap root element %q", doc.XMLName.Local)
	}
}

// Loader resolves a sitemap URL into the full catalog, following
// <sitemapindex> references up to MaxDepth levels.
type Loader struct {
	fetcher  ripper.Fetcher
	maxDepth int
	logger   *zap.Logger
}

// NewLoader constructs a Loader. maxDepth bounds index recursion; a plain
// <urlset> is depth zero.
func NewLoader(fetcher ripper.Fetcher, maxDepth int, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}
	return &Loader{fetcher: fetcher, maxDepth: maxDepth, logger: logger}
}

// Load fetches and parses the sitemap at url. Any fetch or parse failure is
// returned to the caller; catalog discovery errors abort the whole run.
func (l *Loader) Load(ctx context.Context, url string) ([]ripper.CatalogEntry, error) {
	return l.load(ctx, url, 0)
}

func (l *Loader) load(ctx context.Context, url string, depth int) ([]ripper.CatalogEntry, error) {
	if depth >= l.maxDepth {
		return nil, fmt.Errorf("sitemap index nesting exceeds %d levels at %s", l.maxDepth, url)
	}

	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", url, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("sitemap %s: %w", url, err)
	}

	if len(doc.Children) == 0 {
		return doc.Entries, nil
	}

	l.logger.Info("resolving sitemap index",
		zap.String("url", url),
		zap.Int("children", len(doc.Children)))

	var entries []ripper.CatalogEntry
	for _, child := range doc.Children {
		childEntries, err := l.load(ctx, child, depth+1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, childEntries...)
	}
	return entries, nil
}
