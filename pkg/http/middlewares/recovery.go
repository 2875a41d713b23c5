package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/eventatlas/eventatlas/pkg/http/response"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 response.
// CustomizeError may write its own response for known errors and return true.
type Recovery struct {
	CustomizeError func(err error, w http.ResponseWriter) (customized bool)
}

func NewRecovery(customizeError func(err error, w http.ResponseWriter) (customized bool)) *Recovery {
	return &Recovery{CustomizeError: customizeError}
}

func (m *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			e := recover()
			if e == nil {
				return
			}
			if e == http.ErrAbortHandler {
				panic(e)
			}

			err, ok := e.(error)
			if !ok {
				err = fmt.Errorf("%v", e)
			}
			if m.CustomizeError != nil && m.CustomizeError(err, w) {
				return
			}

			zap.S().Errorw("panic recovered",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
				"stack", string(debug.Stack()))
			response.Error(w, http.StatusInternalServerError, "internal error")
		}()

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
