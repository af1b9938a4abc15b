package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultMetricsPath is used when metrics.path is empty.
const defaultMetricsPath = "/metrics"

// metricsRoute returns the path and handler of the Prometheus endpoint, or
// ok=false when metrics are disabled.
func (s *Server) metricsRoute() (path string, h http.Handler, ok bool) {
	if s.metrics == nil || !s.metricsCfg.Enabled {
		return "", nil, false
	}
	path = s.metricsCfg.Path
	if path == "" {
		path = defaultMetricsPath
	}
	return path, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}), true
}

// metricsMiddleware counts requests by chi route pattern so label
// cardinality stays bounded.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(responseStatus(ww))).Inc()
	})
}
