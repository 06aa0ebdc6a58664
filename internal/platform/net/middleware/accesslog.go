// Package middleware holds the in house middlewares and thin wrappers over chi's
package middleware

import (
	"net/http"
	"time"

	"unievents/internal/platform/logger"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow logs requests taking at least Slow at warn level; 0 disables it.
	// Streaming routes are exempt because they last as long as the client listens.
	Slow time.Duration
}

// captureWriter records status and bytes. It forwards Flush so SSE keeps working behind it.
type captureWriter struct {
	http.ResponseWriter
	status    int
	bytes     int
	streaming bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.streaming = cw.Header().Get("Content-Type") == "text/event-stream"
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

func (cw *captureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *captureWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }

// AccessLog logs method, path, status, elapsed and bytes with the request scoped logger
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			elapsed := time.Since(start)
			log := logger.C(r.Context())
			evt := log.Info()
			if opt.Slow > 0 && elapsed >= opt.Slow && !cw.streaming {
				evt = log.Warn()
			}
			evt.Int("status", cw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", cw.bytes).
				Bool("stream", cw.streaming).
				Msg("request done")
		})
	}
}
