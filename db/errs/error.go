package errs

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var detailRegex = regexp.MustCompile(`\([^()]+\)`)

type DBError struct {
	Err error
}

func (e *DBError) Error() string {
	return e.Err.Error()
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func NewDBError(err error) *DBError {
	return &DBError{Err: err}
}

// ConvertError rewrites constraint violations into a readable DBError
func ConvertError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		matches := detailRegex.FindAllString(pgErr.Detail, -1)
		var strs []string
		for i := 0; i+1 < len(matches); i = i + 2 {
			strs = append(strs, fmt.Sprintf("%s=%s", matches[i], matches[i+1]))
		}
		return NewDBError(fmt.Errorf("unique constraint violation: %s", strings.Join(strs, ", ")))
	case pgerrcode.CheckViolation:
		return NewDBError(fmt.Errorf("check constraint violation: %s", pgErr.ConstraintName))
	case pgerrcode.ForeignKeyViolation:
		return NewDBError(fmt.Errorf("foreign key violation: %s", pgErr.ConstraintName))
	}
	return err
}

// IsTransient reports whether err is likely to succeed on retry:
// lost connections, serialization failures, resource exhaustion, and a
// foreign key race against a concurrently registered source.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		return pgerrcode.IsConnectionException(code) ||
			pgerrcode.IsTransactionRollback(code) ||
			pgerrcode.IsInsufficientResources(code) ||
			pgerrcode.IsOperatorIntervention(code) ||
			code == pgerrcode.ForeignKeyViolation
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
