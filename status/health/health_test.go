package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	status, components := Run(context.Background(), nil, time.Second)
	assert.Equal(t, StatusUp, status)
	assert.Empty(t, components)

	indicators := []*Indicator{
		{Name: "database", Check: func(ctx context.Context) error { return nil }},
		{Name: "redis", Check: func(ctx context.Context) error { return errors.New("connection refused") }},
	}
	status, components = Run(context.Background(), indicators, time.Second)
	assert.Equal(t, StatusDown, status)
	assert.Equal(t, StatusUp, components["database"].Status)
	assert.Nil(t, components["database"].Error)
	require.NotNil(t, components["redis"].Error)
	assert.Equal(t, "connection refused", *components["redis"].Error)
}

func TestRunTimeout(t *testing.T) {
	slow := &Indicator{Name: "search", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	start := time.Now()
	status, components := Run(context.Background(), []*Indicator{slow}, 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusDown, status)
	assert.Equal(t, context.DeadlineExceeded.Error(), *components["search"].Error)
}
