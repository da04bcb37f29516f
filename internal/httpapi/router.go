package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires the three routes named in §6.1 behind a logging
// middleware, grounded on gorilla/mux route registration.
func (s *Server) NewRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/v1/openapi.yaml", s.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/v1/certification/status", s.handleCertificationStatus).Methods(http.MethodPost)
	return s.loggingMiddleware(r)
}

// statusRecorder captures the status code a handler wrote so the
// logging middleware can report it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one structured line per request, replacing the
// teacher's apachelog.CombinedLog.Wrap with zap fields (§10.1).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
