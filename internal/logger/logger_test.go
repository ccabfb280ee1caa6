package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("production"))
	assert.Equal(t, slog.LevelInfo, parseLevel("staging"))
	assert.Equal(t, slog.LevelDebug, parseLevel("development"))
	assert.Equal(t, slog.LevelDebug, parseLevel(""))
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logr := NewWithOptions(Options{Env: "production", Writer: &buf})

	logr.Debug("hidden")
	logr.Info("cleanup finished", "deleted", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cleanup finished", entry["msg"])
	assert.EqualValues(t, 3, entry["deleted"])
	assert.False(t, logr.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewWithFileWritesRotatingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.log")
	logr := NewWithOptions(Options{Env: "development", FilePath: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	logr.Info("heartbeat logged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"heartbeat logged"`)
}
