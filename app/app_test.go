package app

import (
	"testing"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/services/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresComponents(t *testing.T) {
	cfg := config.New()
	cfg.API.Listen = "127.0.0.1:0"
	cfg.Status.Listen = "off"
	cfg.AccessLog.Enabled = false
	cfg.Search.RebuildInterval = 3600

	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.DB())
	assert.NotNil(t, app.Queue())
	assert.NotNil(t, app.Indexer())
	assert.NotNil(t, app.Ingester())
	assert.NotNil(t, app.Registry())
	assert.NotNil(t, app.Reporter())
	assert.NotNil(t, app.Worker())
	assert.Len(t, app.indicators(), 3)

	names := make([]string, 0)
	for _, s := range app.services {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"schedule", "api"}, names)
	_, ok := app.services[0].(*schedule.Scheduler).Next("index.rebuild")
	assert.True(t, ok)

	assert.ErrorIs(t, app.Stop(), ErrApplicationStopped)
}

func TestNewWithoutWorker(t *testing.T) {
	cfg := config.New()
	cfg.Worker.Enabled = false
	cfg.API.Listen = "off"
	cfg.Status.Listen = "off"

	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Worker())
	assert.Empty(t, app.services)
}
