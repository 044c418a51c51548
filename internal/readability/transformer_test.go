package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Release Notes</title></head>
<body>
<nav><a href="/">home</a><a href="/about">about</a></nav>
<article>
<h1>Release Notes</h1>
<p>This release fixes the incremental skip check so that pages with an
unparsable modification time are always fetched rather than silently
skipped. Operators who rely on the mapping file should re-run once.</p>
<p>It also bounds the number of concurrent downloads and retries failed
fetches a configurable number of times before giving up on a page.</p>
</article>
<footer>copyright</footer>
</body>
</html>`

func TestExtractMainContent(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	out, err := tr.ExtractMainContent("https://example.com/notes", []byte(articleHTML))
	require.NoError(t, err)

	cleaned := string(out)
	assert.Contains(t, cleaned, "incremental skip check")
	assert.NotContains(t, cleaned, "about")
}

func TestExtractMainContentBadURL(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	_, err := tr.ExtractMainContent("http://%zz", []byte(articleHTML))
	assert.Error(t, err)
}

func TestExtractMainContentEmptyDocument(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	_, err := tr.ExtractMainContent("https://example.com/empty", []byte(strings.Repeat(" ", 16)))
	assert.Error(t, err)
}
