package ripper

import (
	"context"
	"time"
)

// Fetcher performs one HTTP GET and returns the body. It carries no retry
// logic; any unsuccessful outcome is reported as a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Transformer extracts the main readable content from an HTML payload.
// A returned error means "extraction failed for this document"; callers fall
// back to the original bytes.
type Transformer interface {
	ExtractMainContent(pageURL string, html []byte) ([]byte, error)
}

// Namer maps a source URL to a stable artifact filename. It is the join key
// between runs and must stay a pure function of the URL.
type Namer interface {
	NameFor(url string) string
}

// ArtifactStore persists artifact bytes under a filename inside the
// destination directory and returns the full path written.
type ArtifactStore interface {
	Put(name string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
