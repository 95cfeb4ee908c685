package server

import (
	"net/http"

	"github.com/google/uuid"

	"tgrelay/pkg/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with an id and logs its outcome.
// Bot credentials ride in the path, so the path itself is never logged.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.DebugCF("server", "Request handled", map[string]interface{}{
			logger.FieldRequestID: requestID,
			logger.FieldMethod:    r.Method,
			logger.FieldStatus:    rec.status,
		})
	})
}
