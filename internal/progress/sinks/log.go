// Package sinks contains progress.Sink implementations.
package sinks

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/progress"
)

// LogSink renders the user-visible per-entry status lines via zap. Every
// catalog entry produces exactly one ENTRY_* event and therefore one line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs one event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) {
	switch evt.Stage {
	case progress.StageEntrySkipped:
		s.logger.Info("SKIPPED", zap.String("url", evt.URL))
	case progress.StageEntrySaved:
		s.logger.Info("SAVED",
			zap.String("url", evt.URL),
			zap.String("artifact", evt.Artifact),
			zap.Int64("bytes", evt.Bytes),
			zap.Duration("dur", evt.Dur))
	case progress.StageEntryError:
		s.logger.Error("ERROR",
			zap.String("url", evt.URL),
			zap.Int("attempts", evt.Attempt),
			zap.String("cause", evt.Note))
	case progress.StageFetchRetry:
		s.logger.Warn("fetch attempt failed",
			zap.String("url", evt.URL),
			zap.Int("attempt", evt.Attempt),
			zap.String("cause", evt.Note))
	case progress.StageRunStart:
		s.logger.Info("run started", zap.String("run_id", evt.RunUUID().String()))
	case progress.StageRunDone:
		s.logger.Info("run finished",
			zap.String("run_id", evt.RunUUID().String()),
			zap.Duration("dur", evt.Dur),
			zap.String("summary", strings.TrimSpace(evt.Note)))
	}
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
