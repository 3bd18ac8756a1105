package middleware

import (
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"traintrack/internal/telemetry/metrics"
)

// PanicRecovery catches a panicking handler, logs the stack and counts
// the occurrence, keeping the server up.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("http: panic serving %s: %v\n%s", req.URL.Path, rec, debug.Stack())
					metricsManager.CounterHandleRequestPanic.Inc()
				}
			}()

			next.ServeHTTP(w, req)
		})
	}
}
