package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/vendorhub/api/internal/platform/observability")

// MetricsMiddleware records request counts and latency histograms per route.
func MetricsMiddleware() func(http.Handler) http.Handler {
	requests, countErr := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests handled"),
	)
	duration, durErr := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		if countErr != nil || durErr != nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := newResponseRecorder(w)
			start := time.Now()

			next.ServeHTTP(recorder, r)

			ctx := r.Context()
			attrs := metric.WithAttributes(
				attribute.String("http.request.method", SanitizeMethod(r.Method)),
				attribute.String("http.route", SanitizeRoute(routePattern(r))),
				attribute.Int("http.response.status_code", recorder.Status()),
			)
			requests.Add(ctx, 1, attrs)
			duration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), attrs)
		})
	}
}
