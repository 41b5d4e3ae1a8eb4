package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldworld-vtt/grimcore/internal/config"
	"github.com/oldworld-vtt/grimcore/internal/observability"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("test message")
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "shouty", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
