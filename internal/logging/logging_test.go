package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zowiebox.log")

	logger, closer, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	sub := logger.With().Str("component", "test").Logger()
	sub.Debug().Int("streams", 2).Msg("refreshed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "refreshed", line["message"])
	assert.Equal(t, float64(2), line["streams"])
	assert.Contains(t, line, "time")
}

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "WARN", Output: OutputJSON, Console: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNewConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: &buf})
	require.NoError(t, err)

	logger.Info().Str("host", "cam.local").Msg("connected")

	out := buf.String()
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "host=")
	assert.False(t, strings.HasPrefix(out, "{"), "console output is not JSON")
}

func TestNewFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z.log")
	var buf bytes.Buffer
	logger, closer, err := New(Options{File: path, Output: OutputJSON, Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Error().Msg("both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "both")
	assert.Contains(t, buf.String(), "both")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.ErrorContains(t, err, "loud")
}

func TestNewRejectsBadOutput(t *testing.T) {
	_, _, err := New(Options{Output: "xml", Console: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "xml")
}

func TestNewWithoutWriters(t *testing.T) {
	logger, closer, err := New(Options{})
	require.NoError(t, err)
	logger.Info().Msg("discarded")
	assert.NoError(t, closer.Close())
}
