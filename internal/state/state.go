// Package state persists the incremental bookkeeping between runs: the last
// successful run timestamp and the URL to artifact mapping.
package state

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Well-known filenames inside the output directory. The JSON field name and
// the CSV header are shared with earlier tooling; keep them as-is.
const (
	LastRunFile = ".last_run.json"
	MappingFile = "url_mapping.csv"
)

type runMarker struct {
	LastRunTime float64 `json:"last_run_time"`
}

// Store reads and writes run state files under the output directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is expected to exist; the
// artifact store creates it during startup.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// LoadLastRun returns the previous run completion time. A missing marker file
// is a valid initial state reported as ok=false, not an error.
func (s *Store) LoadLastRun() (time.Time, bool, error) {
	path := filepath.Join(s.dir, LastRunFile)
	data, err := os.ReadFile(path) // #nosec G304 -- path is rooted in the configured output dir.
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read run marker: %w", err)
	}

	var marker runMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return time.Time{}, false, fmt.Errorf("decode run marker: %w", err)
	}
	if marker.LastRunTime <= 0 {
		return time.Time{}, false, nil
	}

	sec := int64(marker.LastRunTime)
	nsec := int64((marker.LastRunTime - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), true, nil
}

// SaveLastRun persists t as the new run marker. Callers must capture t only
// after every entry has reached a terminal state.
func (s *Store) SaveLastRun(t time.Time) error {
	marker := runMarker{LastRunTime: float64(t.UnixNano()) / float64(time.Second)}
	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("encode run marker: %w", err)
	}
	path := filepath.Join(s.dir, LastRunFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write run marker: %w", err)
	}
	return nil
}

// WriteMapping overwrites url_mapping.csv with one row per saved entry. Rows
// are sorted by URL so repeated runs produce byte-identical files.
func (s *Store) WriteMapping(mapping ripper.Mapping) error {
	path := filepath.Join(s.dir, MappingFile)
	f, err := os.Create(path) // #nosec G304 -- path is rooted in the configured output dir.
	if err != nil {
		return fmt.Errorf("create mapping file: %w", err)
	}
	defer f.Close()

	urls := make([]string, 0, len(mapping))
	for u := range mapping {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"URL", "Filename"}); err != nil {
		return fmt.Errorf("write mapping header: %w", err)
	}
	for _, u := range urls {
		if err := w.Write([]string{u, mapping[u]}); err != nil {
			return fmt.Errorf("write mapping row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush mapping file: %w", err)
	}
	return nil
}
