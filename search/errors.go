package search

import (
	"fmt"
	"strings"
)

// APIError is a non-2xx response of the search server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search server responded %d: %s", e.Status, e.Message)
}

// ImportFailure is a single document the server refused
type ImportFailure struct {
	ID    string
	Error string
}

type ImportError struct {
	Failures []ImportFailure
}

func (e *ImportError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ID)
	}
	return fmt.Sprintf("failed to import %d document(s) [%s]: %s",
		len(e.Failures), strings.Join(ids, ", "), e.Failures[0].Error)
}
