package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewFileLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blobnav.log")

	logger, err := NewFileLogger("info", path)
	require.NoError(t, err)

	logger.With(String("container", "demo")).Info("listing loaded", Int("items", 3))
	logger.Debug("suppressed at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"listing loaded"`)
	assert.Contains(t, string(data), `"container":"demo"`)
	assert.NotContains(t, string(data), "suppressed")
}

func TestNewFileLogger_EmptyPathIsNop(t *testing.T) {
	logger, err := NewFileLogger("debug", "")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("dropped")
}
