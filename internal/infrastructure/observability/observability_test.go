package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONOutsideDevelopment(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	initLogger(&buf, "doctorconnect", "production", "warn")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "doctorconnect", entry["service"])
}

func TestInitMetrics_NoopProvider(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	RecordOutcome(ctx, metrics.BookingSubmitCount, "succeeded")
	RecordCacheHit(ctx, metrics, "doctor:d1")
	RecordCacheMiss(ctx, nil, "doctor:d1")
	RecordOutcome(ctx, nil, "ignored")
	RecordRequestMetric(ctx, metrics, "GET", "/api/doctor/all", 200, 12*time.Millisecond)
	RecordRequestMetric(ctx, nil, "GET", "/api/doctor/all", 0, 0)
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	LoggerFromContext(context.Background(), base).Info().Msg("x")
	assert.NotContains(t, buf.String(), "trace_id")
}
