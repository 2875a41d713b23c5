package accesslog

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const RequestIDHeader = "X-Request-ID"

// NewMiddleware logs every request once the wrapped handler returns
func NewMiddleware(logger AccessLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := NewEntry(r)
			start := time.Now()
			rw := &recorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			entry.Latency = time.Since(start)
			entry.Status = rw.status
			entry.Size = rw.size
			entry.RequestID = rw.Header().Get(RequestIDHeader)
			if route := mux.CurrentRoute(r); route != nil {
				entry.Route, _ = route.GetPathTemplate()
			}
			logger.Log(r.Context(), entry)
		})
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *recorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
