// Package ripper defines core types shared across subsystems.
package ripper

import (
	"fmt"
	"time"
)

// CatalogEntry is one target discovered from the sitemap. LastMod carries the
// raw <lastmod> text; it stays unparsed here because an unparsable value must
// still reach the engine (which treats it as "timestamp unknown").
type CatalogEntry struct {
	URL     string
	LastMod string
}

// Status classifies the terminal state of one catalog entry.
type Status string

// Terminal entry states.
const (
	StatusSkipped Status = "skipped"
	StatusSaved   Status = "saved"
	StatusError   Status = "error"
)

// Outcome is produced exactly once per catalog entry.
type Outcome struct {
	URL      string
	Status   Status
	Artifact string
	Attempts int
	Bytes    int64
	Err      error
}

// Mapping accumulates source URL to artifact filename for saved entries.
// It is owned by the aggregating consumer and never shared between workers.
type Mapping map[string]string

// RunSummary aggregates the outcomes of one full run.
type RunSummary struct {
	Mapping  Mapping
	Saved    int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Total returns the number of entries that reached a terminal state.
func (s RunSummary) Total() int {
	return s.Saved + s.Skipped + s.Failed
}

// FetchError is raised by a Fetcher for any unsuccessful fetch. StatusCode is
// zero when the failure happened below HTTP (DNS, connect, timeout).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
