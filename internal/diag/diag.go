// Package diag collects recoverable conversion problems. Each warning is
// logged once and kept so callers can report them after the run.
package diag

import (
	"io"
	"log/slog"
)

type Sink struct {
	logger   *slog.Logger
	warnings []error
}

// NewSink returns a sink logging to logger. A nil logger discards output.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sink{logger: logger}
}

func (s *Sink) Logger() *slog.Logger { return s.logger }

// Warn records err and logs it at warn level with the given attributes.
func (s *Sink) Warn(err error, args ...any) {
	s.warnings = append(s.warnings, err)
	s.logger.Warn(err.Error(), args...)
}

func (s *Sink) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Warnings returns the recorded warnings in the order they were raised.
func (s *Sink) Warnings() []error {
	out := make([]error, len(s.warnings))
	copy(out, s.warnings)
	return out
}
