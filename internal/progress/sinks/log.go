// Package sinks provides progress.Sink implementations for logs, metrics,
// and live run status.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/progress"
)

// LogSink emits structured logs for the harvest progress stream. It mirrors
// the per-request console output of the original scraper in structured form.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("stage", string(evt.Stage)),
			zap.String("partition", string(evt.Partition)),
			zap.Int("offset", evt.Offset),
			zap.Int("records", evt.Records),
			zap.Int("unique", evt.Unique),
			zap.Duration("dur", evt.Dur),
		}
		if evt.Status != "" {
			fields = append(fields, zap.String("status", string(evt.Status)))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("harvest progress", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
