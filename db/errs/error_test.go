package errs

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConvertError(t *testing.T) {
	assert.Nil(t, ConvertError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, ConvertError(plain))

	err := ConvertError(&pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (code)=(BEARWEEK) already exists.",
	})
	assert.EqualError(t, err, "unique constraint violation: (code)=(BEARWEEK)")

	err = ConvertError(fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           pgerrcode.CheckViolation,
		ConstraintName: "events_ends_after_starts",
	}))
	assert.EqualError(t, err, "check constraint violation: events_ends_after_starts")
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err       error
		transient bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{driver.ErrBadConn, true},
		{&pgconn.PgError{Code: pgerrcode.SerializationFailure}, true},
		{&pgconn.PgError{Code: pgerrcode.DeadlockDetected}, true},
		{&pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		{&pgconn.PgError{Code: pgerrcode.TooManyConnections}, true},
		{&pgconn.PgError{Code: pgerrcode.AdminShutdown}, true},
		{&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, true},
		{&pgconn.PgError{Code: pgerrcode.CheckViolation}, false},
		{&pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}), true},
	}
	for _, test := range tests {
		assert.Equal(t, test.transient, IsTransient(test.err), "%v", test.err)
	}
}
