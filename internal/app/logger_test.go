package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoggerConfig(t *testing.T) {
	prod := loggerConfig("production")
	assert.Equal(t, "json", prod.Encoding)
	assert.False(t, prod.Level.Enabled(zap.DebugLevel))
	assert.Equal(t, ServiceName, prod.InitialFields["service"])
	assert.Equal(t, "production", prod.InitialFields["env"])

	dev := loggerConfig("development")
	assert.Equal(t, "console", dev.Encoding)
	assert.True(t, dev.Level.Enabled(zap.DebugLevel))
	assert.Equal(t, []string{"stdout"}, dev.OutputPaths)
}

func TestNewLoggerAndSync(t *testing.T) {
	logger := NewLogger("test")
	assert.NotNil(t, logger)
	assert.NotPanics(t, func() { SyncLogger(logger) })
}
