package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-race/typerace/internal/logger"
)

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, "debug", "json")
	t.Cleanup(func() { logger.InitWriter(&bytes.Buffer{}, "info", "json") })

	logger.Info().Str("user", "u1").Msg("recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "u1", line["user"])
	assert.Equal(t, "recorded", line["message"])
}

func TestInitWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, "warn", "json")
	t.Cleanup(func() { logger.InitWriter(&bytes.Buffer{}, "info", "json") })

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, "loud", "json")
	t.Cleanup(func() { logger.InitWriter(&bytes.Buffer{}, "info", "json") })

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
