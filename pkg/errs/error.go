package errs

import (
	"errors"
	"fmt"
)

var (
	ErrRequestValidate = errors.New("request validation")
	ErrPayloadValidate = errors.New("invalid source payload")
)

// ValidateError is a non-retryable error describing invalid input field by field
type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func NewValidateFieldsError(err error, fields map[string]interface{}) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  fields,
	}
}

func (e *ValidateError) Error() string {
	if len(e.Fields) == 0 {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %v", e.err.Error(), e.Fields)
}

func (e *ValidateError) Unwrap() error {
	return e.err
}

func IsValidateError(err error) bool {
	var e *ValidateError
	return errors.As(err, &e)
}

// TransientError wraps failures of infrastructure that are expected to recover,
// the operation can be retried.
type TransientError struct {
	err error
}

func NewTransientError(err error) *TransientError {
	return &TransientError{err: err}
}

func Transientf(format string, args ...interface{}) *TransientError {
	return &TransientError{err: fmt.Errorf(format, args...)}
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

func IsTransient(err error) bool {
	var e *TransientError
	return errors.As(err, &e)
}

// ConsistencyError reports that the search index may have diverged from the
// record store and requires an operator to re-run the rebuild.
type ConsistencyError struct {
	Stage string
	err   error
}

func NewConsistencyError(stage string, err error) *ConsistencyError {
	return &ConsistencyError{Stage: stage, err: err}
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("index consistency at risk (%s): %s", e.Stage, e.err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.err
}

func IsConsistencyError(err error) bool {
	var e *ConsistencyError
	return errors.As(err, &e)
}
