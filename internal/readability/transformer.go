// Package readability extracts the main readable content from HTML pages.
package readability

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Transformer implements ripper.Transformer using the go-readability port of
// Mozilla's Readability. Extraction failures are reported to the caller, which
// keeps the original bytes; this step never aborts a fetch.
type Transformer struct {
	logger *zap.Logger
}

var _ ripper.Transformer = (*Transformer)(nil)

// New returns a readability transformer.
func New(logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{logger: logger}
}

// ExtractMainContent parses the HTML and returns the cleaned article body.
func (t *Transformer) ExtractMainContent(pageURL string, html []byte) ([]byte, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}
	if article.Content == "" {
		return nil, fmt.Errorf("readability produced no content for %s", pageURL)
	}

	t.logger.Debug("extracted main content",
		zap.String("url", pageURL),
		zap.String("title", article.Title),
		zap.Int("original_bytes", len(html)),
		zap.Int("cleaned_bytes", len(article.Content)))

	return []byte(article.Content), nil
}
