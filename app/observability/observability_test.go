package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_FormatByEnvironment(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, Config{Environment: "production", ServiceName: "hunting-party"}).Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "production logs are JSON")
	assert.Contains(t, buf.String(), `"service":"hunting-party"`)

	buf.Reset()
	newLogger(&buf, Config{Environment: "development"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Config{Environment: "development", LogLevel: "warn"})
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test")
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "RecordTimelineEvent", "ApplicationService")
	m.RecordOperationAttempt(ctx, "RecordTimelineEvent", "ApplicationService")
	m.RecordPointsDelta(ctx, 5)
	m.RecordPointsDelta(ctx, -2)
	m.RecordPointsDelta(ctx, 0)
	m.SetRealtimeSubscribers(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("ApplicationService", "RecordTimelineEvent")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.pointsDelta.WithLabelValues("awarded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pointsDelta.WithLabelValues("revoked")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.subscribers))
}

func TestLogFaultReporter(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewLogFaultReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	reporter.ReportFault(context.Background(), "ApplyDelta", errors.New("user vanished"))

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "operation=ApplyDelta")
	assert.Contains(t, out, "user vanished")
}

func TestNewTracerProvider_NoEndpointIsNoop(t *testing.T) {
	tp, shutdown, err := NewTracerProvider(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))
}
