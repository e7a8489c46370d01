package middleware

import (
	"context"
	"net/http"
	"time"

	"cfb-picks/logging"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDHeader carries the per-request id back to the client
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs method, path, status
// and duration once the handler returns
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			w.Header().Set(RequestIDHeader, reqID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))

			next.ServeHTTP(rw, r)

			l := logger.With("request_id", reqID).With("status", rw.statusCode).With("bytes", rw.size)
			msg := "%s %s (%v)"
			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				l.Errorf(msg, r.Method, r.URL.Path, time.Since(start))
			case rw.statusCode >= http.StatusBadRequest:
				l.Warnf(msg, r.Method, r.URL.Path, time.Since(start))
			default:
				l.Debugf(msg, r.Method, r.URL.Path, time.Since(start))
			}
		})
	}
}

// RequestID returns the id assigned by RequestLogger, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	wrote      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wrote {
		rw.statusCode = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wrote = true
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}
