package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// responseTap captures the status line and byte count on the way out.
type responseTap struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newResponseTap(w http.ResponseWriter) *responseTap {
	return &responseTap{ResponseWriter: w, status: http.StatusOK}
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	n, err := t.ResponseWriter.Write(p)
	t.bytes += int64(n)
	return n, err
}

// RoutePattern returns the chi pattern matched for this request, falling back
// to the raw path when routing never completed. chi fills the pattern in place
// while routing, so the value is only complete after the handler returned.
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// Instrument traces and measures every request of the order API: one span per
// request renamed to the matched route once it is known, request counters and
// latency histograms labeled method/route/status, and an in-flight gauge. Low
// cardinality is kept by labeling the route pattern (/api/v1/orders/{id}),
// never the raw path.
func Instrument(metrics *HTTPMetrics) func(http.Handler) http.Handler {
	tracer := otel.Tracer("backend-order/http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			tap := newResponseTap(w)
			if metrics != nil {
				metrics.InFlight.Inc()
			}
			start := time.Now()
			next.ServeHTTP(tap, r.WithContext(ctx))
			elapsed := time.Since(start)

			route := RoutePattern(r)
			if metrics != nil {
				metrics.InFlight.Dec()
				metrics.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(tap.status)).Inc()
				metrics.ReqDur.WithLabelValues(r.Method, route).Observe(DurationMillis(elapsed))
			}

			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.Int("http.status_code", tap.status),
			)
			if tap.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(tap.status))
			}
			span.End()
		})
	}
}
