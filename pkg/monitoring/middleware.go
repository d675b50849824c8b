package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
)

// statusRecorder captures the response status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request metrics and structured access logs.
func HTTPMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), duration.Seconds())
			log.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, rec.status, duration.Milliseconds())
		})
	}
}
