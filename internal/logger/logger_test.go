package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(Config{Level: "loud"})
		assert.ErrorContains(t, err, "invalid log level")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New(Config{Level: "info", Format: "xml"})
		assert.ErrorContains(t, err, "invalid log format")
	})

	t.Run("json file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "outlier.log")
		logger, err := New(Config{Level: "debug", Format: JSONFormat, Output: path})
		require.NoError(t, err)
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("defaults", func(t *testing.T) {
		logger, err := New(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, zerolog.InfoLevel)
	logger.Debug().Msg("hidden")
	logger.Info().Str("method", "range").Msg("detected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "detected", entry["message"])
	assert.Equal(t, "range", entry["method"])
	assert.Equal(t, "info", entry["level"])
}
