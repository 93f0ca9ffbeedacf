package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request id assignment, request logging
// and the per-handler metrics.
func (s *Server) instrument(name string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		s.metrics.requestsInFlight.Inc()
		defer s.metrics.requestsInFlight.Dec()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		handler(recorder, r)
		elapsed := time.Since(started)

		s.metrics.requestsTotal.WithLabelValues(name, r.Method, strconv.Itoa(recorder.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		level.Info(s.logger).Log(
			"msg", "request",
			"handler", name,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", elapsed,
			"request_id", requestID,
		)
	})
}
