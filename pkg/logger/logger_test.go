package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("loud"))
}

func TestJSONOutputWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: InfoLevel, Format: "json", Output: &buf})

	l.WithFields(map[string]interface{}{"worker_id": "w-1"}).Info("started", "channel", "appointments")
	l.Debug("dropped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "started", entry["message"])
	assert.Equal(t, "w-1", entry["worker_id"])
	assert.Equal(t, "appointments", entry["channel"])
	assert.Equal(t, "info", entry["level"])
}
