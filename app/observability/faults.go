package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/getsentry/sentry-go"
)

// FaultReporter escalates errors that must never be silently absorbed.
type FaultReporter interface {
	ReportFault(ctx context.Context, operation string, err error)
}

type logFaultReporter struct {
	logger *slog.Logger
}

func (r *logFaultReporter) ReportFault(ctx context.Context, operation string, err error) {
	r.logger.ErrorContext(ctx, "Consistency fault",
		attr.String("operation", operation),
		attr.Error(err),
	)
}

type sentryFaultReporter struct {
	logFaultReporter
}

func (r *sentryFaultReporter) ReportFault(ctx context.Context, operation string, err error) {
	r.logFaultReporter.ReportFault(ctx, operation, err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", operation)
		scope.SetLevel(sentry.LevelFatal)
		sentry.CaptureException(err)
	})
}

// NewFaultReporter reports to Sentry when a DSN is configured and always logs.
func NewFaultReporter(cfg Config, logger *slog.Logger) (FaultReporter, func(context.Context) error, error) {
	base := logFaultReporter{logger: logger}
	if cfg.SentryDSN == "" {
		return &base, func(context.Context) error { return nil }, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Version,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	flush := func(context.Context) error {
		sentry.Flush(2 * time.Second)
		return nil
	}
	return &sentryFaultReporter{logFaultReporter: base}, flush, nil
}

// NewLogFaultReporter returns a reporter that only logs.
func NewLogFaultReporter(logger *slog.Logger) FaultReporter {
	return &logFaultReporter{logger: logger}
}
