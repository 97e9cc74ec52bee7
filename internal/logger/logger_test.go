package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaconv/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, hclog.Trace, ParseLevel("trace"))
	assert.Equal(t, hclog.Debug, ParseLevel("DEBUG"))
	assert.Equal(t, hclog.Warn, ParseLevel("warning"))
	assert.Equal(t, hclog.Error, ParseLevel(" error "))
	assert.Equal(t, hclog.Info, ParseLevel(""))
	assert.Equal(t, hclog.Info, ParseLevel("nonsense"))
}

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(config.LoggingConfig{Level: "info", JSON: true}, &buf)

	log.Debug("hidden")
	log.Info("probed file", "path", "/tmp/a.mp4")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "probed file", entry["@message"])
	assert.Equal(t, "/tmp/a.mp4", entry["path"])
	assert.Equal(t, Name, entry["@module"])
}

func TestOrNull(t *testing.T) {
	assert.NotNil(t, OrNull(nil))
	l := hclog.NewNullLogger()
	assert.Equal(t, l, OrNull(l))
}
