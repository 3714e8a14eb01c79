package telemetry

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggingSink backs the telemetry façade with structured logging,
// grounded on email-service/internal/logger's zerolog conventions:
// one event per log line, attributes as structured fields rather than
// string-interpolated messages.
type LoggingSink struct {
	Logger zerolog.Logger
}

func NewLoggingSink(logger zerolog.Logger) *LoggingSink {
	return &LoggingSink{Logger: logger}
}

func (s *LoggingSink) Emit(_ context.Context, name string, attrs map[string]any) {
	evt := s.Logger.Info().Str("telemetry_event", name)
	for k, v := range attrs {
		evt = evt.Interface(k, v)
	}
	evt.Msg(name)
}

// RecordingSink is a test double that captures every emitted event in
// order, used by queue-processor and handler tests to assert on
// telemetry side effects without a logging backend.
type RecordingSink struct {
	Events []Recorded
}

type Recorded struct {
	Name  string
	Attrs map[string]any
}

func (s *RecordingSink) Emit(_ context.Context, name string, attrs map[string]any) {
	s.Events = append(s.Events, Recorded{Name: name, Attrs: attrs})
}
