package middlewares

import (
	"context"
	"net/http"

	"github.com/eventatlas/eventatlas/pkg/accesslog"
	"github.com/eventatlas/eventatlas/utils"
)

type requestIDKey struct{}

// RequestID echoes a client supplied UUID in X-Request-ID or assigns a new one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(accesslog.RequestIDHeader)
		if !utils.IsValidUUID(id) {
			id = utils.UUID()
		}
		w.Header().Set(accesslog.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the id assigned by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
