package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/progress"
)

// PrometheusSink exports run progress via Prometheus. It owns the collectors
// for entry outcomes, retry attempts, bytes saved, and run durations.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	entriesTotal  *prometheus.CounterVec
	fetchRetries  prometheus.Counter
	bytesSaved    prometheus.Counter
	entryDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripper_runs_started_total",
			Help: "Total runs that have started.",
		}),
		entriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripper_entries_total",
			Help: "Catalog entries processed partitioned by terminal status.",
		}, []string{"status"}),
		fetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripper_fetch_attempt_failures_total",
			Help: "Fetch attempts that failed and consumed retry budget.",
		}),
		bytesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripper_bytes_saved_total",
			Help: "Bytes written to artifact files.",
		}),
		entryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ripper_entry_duration_seconds",
			Help:    "Wall time per terminal entry partitioned by status.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripper_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.entriesTotal,
		s.fetchRetries,
		s.bytesSaved,
		s.entryDuration,
		s.runDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		if evt.Dur > 0 {
			s.runDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageFetchRetry:
		s.fetchRetries.Inc()
	case progress.StageEntrySkipped:
		s.observeEntry(evt, "skipped")
	case progress.StageEntrySaved:
		s.observeEntry(evt, "saved")
		if evt.Bytes > 0 {
			s.bytesSaved.Add(float64(evt.Bytes))
		}
	case progress.StageEntryError:
		s.observeEntry(evt, "error")
	}
}

func (s *PrometheusSink) observeEntry(evt progress.Event, status string) {
	s.entriesTotal.WithLabelValues(status).Inc()
	if evt.Dur > 0 {
		s.entryDuration.WithLabelValues(status).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
