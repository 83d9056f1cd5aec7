package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orgctl.log")

	logger, err := NewLogger("warn", "json", path)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("org_call", zap.String("path", "/organization/tree"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1, "info is below the configured level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "org_call", rec["msg"])
	assert.Equal(t, "/organization/tree", rec["path"])
	assert.Contains(t, rec, "timestamp")
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgctl.log")
	logger, err := NewLogger("debug", "console", path)
	require.NoError(t, err)
	logger.Debug("tree_loaded")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "tree_loaded")
	assert.Contains(t, string(raw), "DEBUG")
}
