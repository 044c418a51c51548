package cmd

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/config"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/state"
)

// newSiteServer serves a five-page sitemap. Page /p/3 always returns 404 so a
// run against the full catalog contains one error entry; the other pages hold
// their response for pageDelay.
func newSiteServer(t *testing.T, pageDelay time.Duration) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		b.WriteString("<urlset>")
		for _, p := range []string{"/p/1", "/p/2", "/p/3", "/p/4", "/p/5"} {
			b.WriteString("<url><loc>" + srv.URL + p + "</loc></url>")
		}
		b.WriteString("</urlset>")
		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/p/3", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, _ *http.Request) {
		if pageDelay > 0 {
			time.Sleep(pageDelay)
		}
		_, _ = w.Write([]byte("<html><body>page</body></html>"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(dir string) config.Config {
	return config.Config{
		Output: config.OutputConfig{Dir: dir},
		Fetch: config.FetchConfig{
			Workers:         2,
			Retries:         1,
			TimeoutSeconds:  5,
			UserAgent:       "ripper-test",
			MaxConnsPerHost: 4,
		},
		Sitemap: config.SitemapConfig{MaxIndexDepth: 2},
	}
}

func readMappingRows(t *testing.T, dir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, state.MappingFile)) // #nosec G304 -- controlled temp dir.
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	require.Equal(t, []string{"URL", "Filename"}, records[0])
	return records[1:]
}

func countArtifacts(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".html") {
			n++
		}
	}
	return n
}

func TestRunHonorsLimit(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t, 0)
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Run.Limit = 1

	require.NoError(t, run(context.Background(), srv.URL+"/sitemap.xml", cfg, zap.NewNop()))

	rows := readMappingRows(t, dir)
	require.Len(t, rows, 1, "limit must truncate the catalog to the front entry")
	assert.Equal(t, srv.URL+"/p/1", rows[0][0])
	assert.Equal(t, 1, countArtifacts(t, dir))
}

func TestRunPersistsStateDespiteEntryErrors(t *testing.T) {
	t.Parallel()

	const pageDelay = 150 * time.Millisecond
	srv := newSiteServer(t, pageDelay)
	dir := t.TempDir()
	cfg := testConfig(dir)

	before := time.Now().UTC()
	require.NoError(t, run(context.Background(), srv.URL+"/sitemap.xml", cfg, zap.NewNop()),
		"per-entry errors must not fail the run")

	lastRun, ok, err := state.New(dir).LoadLastRun()
	require.NoError(t, err)
	require.True(t, ok, "run marker must be written even when some entries error")
	assert.False(t, lastRun.Before(before.Add(pageDelay)),
		"marker must hold a completion-time timestamp, not the start time")

	rows := readMappingRows(t, dir)
	require.Len(t, rows, 4, "the failed entry must be absent from the mapping")
	for _, row := range rows {
		assert.NotEqual(t, srv.URL+"/p/3", row[0])
	}
	assert.Equal(t, 4, countArtifacts(t, dir))
}
