package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info("Processing feed file", "file", "stops.txt", "records", 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Processing feed file", entry["message"])
	assert.Equal(t, "stops.txt", entry["file"])
	assert.Equal(t, float64(42), entry["records"])
	assert.Contains(t, entry, "time")
}

func TestLoggerErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Error("Session failed", "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerMapFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Warn("Loading feed from disk cache", map[string]interface{}{"link": "https://rail.example"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "https://rail.example", entry["link"])
}

func TestNopLoggerDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		log := Nop()
		log.Debug("dropped")
		log.Info("dropped", "k", "v")
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{input: "debug", want: zerolog.DebugLevel},
		{input: "warn", want: zerolog.WarnLevel},
		{input: "warning", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "fatal", want: zerolog.FatalLevel},
		{input: "INFO", want: zerolog.InfoLevel},
		{input: "", want: zerolog.InfoLevel},
		{input: "bogus", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.input), "level %q", tt.input)
	}
}
