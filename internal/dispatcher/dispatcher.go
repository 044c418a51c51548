// Package dispatcher fans catalog entries out to a bounded worker pool and
// aggregates outcomes as they complete.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Processor takes one catalog entry to a terminal outcome.
type Processor interface {
	Process(ctx context.Context, entry ripper.CatalogEntry) ripper.Outcome
}

// Dispatcher runs a Processor over a catalog with at most `workers`
// invocations in flight.
type Dispatcher struct {
	processor Processor
	workers   int
	clock     ripper.Clock
	logger    *zap.Logger
}

// New creates a Dispatcher.
func New(processor Processor, workers int, clock ripper.Clock, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		processor: processor,
		workers:   workers,
		clock:     clock,
		logger:    logger,
	}
}

// Run processes every entry exactly once and returns only after all of them
// have reached a terminal outcome. Completion order is arbitrary; the mapping
// is mutated solely by this aggregating goroutine. One entry's failure never
// halts the others.
func (d *Dispatcher) Run(ctx context.Context, entries []ripper.CatalogEntry) ripper.RunSummary {
	start := d.clock.Now()

	jobs := make(chan ripper.CatalogEntry)
	results := make(chan ripper.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- d.processor.Process(ctx, entry)
			}
		}()
	}

	go func() {
		for _, entry := range entries {
			jobs <- entry
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	summary := ripper.RunSummary{Mapping: make(ripper.Mapping, len(entries))}
	for outcome := range results {
		switch outcome.Status {
		case ripper.StatusSaved:
			summary.Saved++
			// Duplicate URLs in one catalog resolve last-write-wins.
			summary.Mapping[outcome.URL] = outcome.Artifact
		case ripper.StatusSkipped:
			summary.Skipped++
		case ripper.StatusError:
			summary.Failed++
		default:
			d.logger.Error("unclassified outcome",
				zap.String("url", outcome.URL),
				zap.String("status", string(outcome.Status)))
			summary.Failed++
		}
	}

	summary.Duration = d.clock.Now().Sub(start)
	return summary
}
