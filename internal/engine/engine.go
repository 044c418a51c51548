// Package engine implements the per-entry fetch state machine: the skip
// check, the bounded retry loop, optional content cleanup, and artifact
// persistence. Each Process call is independent; entries share no state.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/progress"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Config controls engine behavior for one run.
type Config struct {
	// Force disables the skip check entirely.
	Force bool
	// Readability requests main-content extraction before persisting.
	Readability bool
	// Retries is the total fetch attempt budget per entry; the first attempt
	// counts against it.
	Retries int
}

// Engine decides skip-vs-fetch per catalog entry and drives the retry loop.
type Engine struct {
	fetcher     ripper.Fetcher
	transformer ripper.Transformer
	namer       ripper.Namer
	store       ripper.ArtifactStore
	clock       ripper.Clock
	emitter     progress.Emitter
	runID       [16]byte
	lastRun     time.Time
	hasLastRun  bool
	cfg         Config
	logger      *zap.Logger
}

// New constructs an Engine. transformer may be nil when the readability
// capability is unavailable; lastRun/hasLastRun come from the state store and
// stay fixed for the whole run.
func New(
	fetcher ripper.Fetcher,
	transformer ripper.Transformer,
	namer ripper.Namer,
	store ripper.ArtifactStore,
	clock ripper.Clock,
	emitter progress.Emitter,
	runID [16]byte,
	lastRun time.Time,
	hasLastRun bool,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	return &Engine{
		fetcher:     fetcher,
		transformer: transformer,
		namer:       namer,
		store:       store,
		clock:       clock,
		emitter:     emitter,
		runID:       runID,
		lastRun:     lastRun,
		hasLastRun:  hasLastRun,
		cfg:         cfg,
		logger:      logger,
	}
}

// Process takes one catalog entry to a terminal state and returns its
// outcome. Exactly one artifact write happens on the saved path, none
// otherwise.
func (e *Engine) Process(ctx context.Context, entry ripper.CatalogEntry) ripper.Outcome {
	start := e.clock.Now()

	if e.shouldSkip(entry) {
		e.emit(progress.Event{
			Stage: progress.StageEntrySkipped,
			URL:   entry.URL,
			Dur:   e.clock.Now().Sub(start),
		})
		return ripper.Outcome{URL: entry.URL, Status: ripper.StatusSkipped}
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= e.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts = attempt

		body, err := e.fetcher.Fetch(ctx, entry.URL)
		if err != nil {
			lastErr = err
			e.logger.Warn("fetch attempt failed",
				zap.String("url", entry.URL),
				zap.Int("attempt", attempt),
				zap.Int("remaining", e.cfg.Retries-attempt),
				zap.Error(err))
			e.emit(progress.Event{
				Stage:   progress.StageFetchRetry,
				URL:     entry.URL,
				Attempt: attempt,
				Note:    err.Error(),
			})
			continue
		}

		if e.cfg.Readability {
			if e.transformer == nil {
				// Missing capability is a configuration error; retrying
				// cannot recover it, so classify immediately.
				err := fmt.Errorf("readability cleanup requested but no transformer is configured")
				e.logger.Error("cannot clean content", zap.String("url", entry.URL), zap.Error(err))
				return e.fail(entry.URL, attempt, start, err)
			}
			cleaned, terr := e.transformer.ExtractMainContent(entry.URL, body)
			if terr != nil {
				e.logger.Warn("readability cleanup failed; keeping original content",
					zap.String("url", entry.URL), zap.Error(terr))
			} else {
				body = cleaned
			}
		}

		name := e.namer.NameFor(entry.URL)
		if _, err := e.store.Put(name, body); err != nil {
			lastErr = err
			e.logger.Warn("persist attempt failed",
				zap.String("url", entry.URL),
				zap.Int("attempt", attempt),
				zap.Error(err))
			e.emit(progress.Event{
				Stage:   progress.StageFetchRetry,
				URL:     entry.URL,
				Attempt: attempt,
				Note:    err.Error(),
			})
			continue
		}

		e.emit(progress.Event{
			Stage:    progress.StageEntrySaved,
			URL:      entry.URL,
			Artifact: name,
			Bytes:    int64(len(body)),
			Dur:      e.clock.Now().Sub(start),
		})
		return ripper.Outcome{
			URL:      entry.URL,
			Status:   ripper.StatusSaved,
			Artifact: name,
			Attempts: attempt,
			Bytes:    int64(len(body)),
		}
	}

	return e.fail(entry.URL, attempts, start, lastErr)
}

// shouldSkip applies the incremental check. Unparsable timestamps fail open:
// when in doubt, fetch.
func (e *Engine) shouldSkip(entry ripper.CatalogEntry) bool {
	if e.cfg.Force || !e.hasLastRun || entry.LastMod == "" {
		return false
	}
	ts, err := time.Parse(time.RFC3339, entry.LastMod)
	if err != nil {
		e.logger.Debug("unparsable lastmod; fetching anyway",
			zap.String("url", entry.URL),
			zap.String("lastmod", entry.LastMod))
		return false
	}
	return !ts.After(e.lastRun)
}

func (e *Engine) fail(url string, attempts int, start time.Time, cause error) ripper.Outcome {
	note := ""
	if cause != nil {
		note = cause.Error()
	}
	e.emit(progress.Event{
		Stage:   progress.StageEntryError,
		URL:     url,
		Attempt: attempts,
		Note:    note,
		Dur:     e.clock.Now().Sub(start),
	})
	return ripper.Outcome{
		URL:      url,
		Status:   ripper.StatusError,
		Attempts: attempts,
		Err:      cause,
	}
}

func (e *Engine) emit(evt progress.Event) {
	if e.emitter == nil {
		return
	}
	evt.RunID = e.runID
	evt.TS = e.clock.Now()
	e.emitter.Emit(evt)
}
