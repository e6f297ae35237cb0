package service

import (
	"context"

	"driftwatch/internal/platform/logger"
	"driftwatch/internal/services/monitor/domain"
)

// LogEmitter writes metric batches through the logger instead of a backend.
// Used for dry runs and the demo CLI
type LogEmitter struct {
	log logger.Logger
}

// NewLogEmitter constructs a LogEmitter
func NewLogEmitter() *LogEmitter {
	return &LogEmitter{log: *logger.Named("emitter")}
}

// Emit implements domain.EmitterPort
func (e *LogEmitter) Emit(_ context.Context, batch []domain.Metric) error {
	for _, m := range batch {
		e.log.Info().
			Str("name", m.Name).
			Float64("value", m.Value).
			Str("unit", m.Unit).
			Time("at", m.Timestamp).
			Msg("metric")
	}
	return nil
}
