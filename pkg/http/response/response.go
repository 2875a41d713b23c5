// Package response writes JSON bodies with the common server headers
package response

import (
	"encoding/json"
	"net/http"

	"github.com/eventatlas/eventatlas/constants"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Message string      `json:"message"`
	Error   interface{} `json:"error,omitempty"`
}

// JSON writes data as the body, a string is written verbatim.
// Data that cannot be encoded panics so the recovery middleware answers 500.
func JSON(w http.ResponseWriter, code int, data interface{}) {
	var body []byte
	switch v := data.(type) {
	case nil:
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		var err error
		if body, err = json.Marshal(v); err != nil {
			panic(err)
		}
	}

	header := w.Header()
	for name, value := range constants.ResponseHeaders {
		header.Set(name, value)
	}
	header.Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if body != nil {
		_, _ = w.Write(body)
	}
}

// Error writes an ErrorResponse carrying only a message
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, ErrorResponse{Message: message})
}
