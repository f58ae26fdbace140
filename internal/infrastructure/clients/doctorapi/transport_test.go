package doctorapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRouteOf(t *testing.T) {
	tests := map[string]string{
		"/api/doctor/all":              "/api/doctor/all",
		"/api/doctor/d42":              "/api/doctor/{id}",
		"/api/appointments/doctor/d42": "/api/appointments/doctor/{id}",
		"/api/appointments":            "/api/appointments",
		"/api/auth/me":                 "/api/auth/me",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeOf(path), path)
	}
}

func TestWithInstrumentation_TracesAndPropagates(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevProvider, prevPropagator := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	traceparent := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent <- r.Header.Get("traceparent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"d7","fullName":"Dr. Eva","speciality":"Neurology"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, WithInstrumentation(zerolog.Nop(), nil))
	profile, err := client.GetDoctor(context.Background(), "d7")
	require.NoError(t, err)
	assert.Equal(t, "Neurology", profile.Specialty)

	assert.NotEmpty(t, <-traceparent, "trace context reaches the backend")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/doctor/{id}", spans[0].Name())
}
