package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/infra"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// quietRoutes are polled by orchestrators and scrapers; they are counted but not logged.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Observe logs requests and feeds the HTTP metrics. Routes are labelled by
// their chi pattern so ids do not blow up cardinality.
func Observe(m *infra.Metrics, log *logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			dur := time.Since(start)

			if m != nil {
				m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				m.RequestDuration.WithLabelValues(r.Method, route).Observe(dur.Seconds())
			}

			if quietRoutes[route] && status < http.StatusInternalServerError {
				return
			}

			level := "info"
			if status >= http.StatusInternalServerError {
				level = "error"
			}
			log.Log(logger.LogEntry{
				Level:   level,
				Message: "http request",
				Fields: map[string]any{
					"method":   r.Method,
					"route":    route,
					"status":   status,
					"bytes":    ww.BytesWritten(),
					"duration": dur.String(),
				},
			})
		})
	}
}
