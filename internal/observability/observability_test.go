package observability

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/solar-sizing-service/internal/config"
)

func TestNewLogger_FromConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "error", LogFormat: "json"})
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestNewLogger_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})

	assert.Same(t, logger, slog.Default())
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}

func TestMetrics_RecordSizing(t *testing.T) {
	m := NewMetricsForTesting()

	m.RecordSizing("http", "pt-BR", 0)
	m.RecordSizing("http", "pt-BR", 2)
	m.RecordSizing("kafka", "it-IT", 1)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Sizings.WithLabelValues("http", "pt-BR")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Sizings.WithLabelValues("kafka", "it-IT")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.SizingWarnings), 0)
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.TransformErrors.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.TransformErrors), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.TransformErrors), 0)
}
