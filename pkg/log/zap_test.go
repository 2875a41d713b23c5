package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "eventatlas.log")
	logger, err := NewZapLogger(&modules.LogConfig{
		File:   file,
		Level:  modules.LogLevelInfo,
		Format: modules.LogFormatJson,
		Fields: map[string]string{"node": "atlas-1"},
	})
	require.NoError(t, err)

	logger.Named("worker").Infow("job acked", "id", "task-1")
	logger.Debug("hidden")
	_ = logger.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"logger":"worker"`)
	assert.Contains(t, string(b), `"msg":"job acked"`)
	assert.Contains(t, string(b), `"id":"task-1"`)
	assert.Contains(t, string(b), `"node":"atlas-1"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNewZapLoggerText(t *testing.T) {
	file := filepath.Join(t.TempDir(), "eventatlas.log")
	logger, err := NewZapLogger(&modules.LogConfig{
		File:   file,
		Level:  modules.LogLevelDebug,
		Format: modules.LogFormatText,
	})
	require.NoError(t, err)
	logger.Named("indexer").Debug("rebuild started")
	_ = logger.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[indexer]")
	assert.Contains(t, string(b), "rebuild started")
}

func TestNewZapLoggerInvalid(t *testing.T) {
	_, err := NewZapLogger(&modules.LogConfig{Level: "x", Format: modules.LogFormatText})
	assert.Error(t, err)

	_, err = NewZapLogger(&modules.LogConfig{Level: modules.LogLevelInfo, Format: "xml"})
	assert.EqualError(t, err, "invalid format: xml")
}
