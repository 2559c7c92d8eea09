package eventbus

import (
	"log/slog"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
)

// SlogAdapter adapts *slog.Logger to the watermill.LoggerAdapter interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Error logs an error message.
func (l *SlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(msg, append(toArgs(fields), attr.Error(err))...)
}

// Info logs an info message.
func (l *SlogAdapter) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(msg, toArgs(fields)...)
}

// Debug logs a debug message.
func (l *SlogAdapter) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, toArgs(fields)...)
}

// Trace logs a trace message at debug level.
func (l *SlogAdapter) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, toArgs(fields)...)
}

// With returns a new logger with the given fields.
func (l *SlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &SlogAdapter{logger: l.logger.With(toArgs(fields)...)}
}

func toArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}
