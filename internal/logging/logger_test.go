// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Development: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = New(Config{Level: "chatty"})
	assert.Error(t, err)
}
