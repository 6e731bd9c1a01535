package logger_test

import (
	"testing"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/config"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	lg, err := logger.New(config.LogConfig{Level: "warn", JSON: true})
	require.NoError(t, err)
	assert.False(t, lg.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, lg.Core().Enabled(zapcore.WarnLevel))

	_, err = logger.New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
