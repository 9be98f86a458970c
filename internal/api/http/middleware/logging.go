package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"notes-sync/internal/logger"
)

// responseWriter обертка для ResponseWriter для логирования статуса ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging логирует все HTTP запросы с информацией о времени выполнения
func Logging(next http.Handler, log *slog.Logger) http.Handler {
	log = logger.OrDefault(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", ww.statusCode,
			"duration", time.Since(start),
		)
	})
}
