package main

import (
	"bytes"
	"log/slog"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "warn", "json")
	logger.Info("dropped")
	logger.Warn("delivery failed", slog.String("conn", "c1"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "delivery failed", rec["message"])
	assert.Equal(t, "c1", rec["conn"])
	assert.Equal(t, "eventhub", rec["service"])
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "debug", "console").Debug("subscribed", slog.String("event", "news"))
	assert.Contains(t, buf.String(), "subscribed")
	assert.Contains(t, buf.String(), "news")
}
