package doctorapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithInstrumentation traces every request, propagates the trace context to
// the backend, records request metrics and logs each exchange at debug.
func WithInstrumentation(logger zerolog.Logger, metrics *observability.Metrics) Option {
	return func(c *HTTPClient) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = &instrumentedTransport{
			base:    base,
			logger:  logger.With().Str("component", "doctorapi").Logger(),
			metrics: metrics,
		}
	}
}

type instrumentedTransport struct {
	base    http.RoundTripper
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	route := routeOf(req.URL.Path)

	ctx, span := observability.StartSpan(req.Context(), req.Method+" "+route,
		attribute.String("http.method", req.Method),
		attribute.String("http.route", route),
	)
	defer span.End()

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	observability.RecordRequestMetric(ctx, t.metrics, req.Method, route, status, duration)

	event := observability.LoggerFromContext(ctx, t.logger).Debug().
		Str("method", req.Method).
		Str("route", route).
		Int("status", status).
		Dur("duration", duration)
	if err != nil {
		observability.RecordError(span, err)
		event = event.Err(err)
	}
	event.Msg("api request")

	return resp, err
}

// routeOf replaces path ids with placeholders to keep metric cardinality low
func routeOf(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/appointments/doctor/"):
		return "/api/appointments/doctor/{id}"
	case path == "/api/doctor/all":
		return path
	case strings.HasPrefix(path, "/api/doctor/"):
		return "/api/doctor/{id}"
	}
	return path
}
