package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Conversion.Concurrency)
	assert.Equal(t, 0.01, cfg.Conversion.DurationFallback)
	assert.Equal(t, 4, cfg.Probe.Workers)
	assert.True(t, cfg.Probe.ReadTags)
	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Engine.CapabilityTimeout)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mediaconv.yaml")
	content := `
engine:
  ffmpeg_path: /opt/ffmpeg/bin/ffmpeg
conversion:
  concurrency: 3
  destination_dir: /srv/out
probe:
  read_tags: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("MEDIACONV_CONCURRENCY", "2")
	t.Setenv("MEDIACONV_WATCH_DEBOUNCE", "500ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Engine.FFmpegPath)
	assert.Equal(t, 2, cfg.Conversion.Concurrency, "env overrides file")
	assert.Equal(t, "/srv/out", cfg.Conversion.DestinationDir)
	assert.False(t, cfg.Probe.ReadTags, "file overrides default")
	assert.Equal(t, 4, cfg.Probe.Workers, "default survives when unset")
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("x = 1"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("MEDIACONV_PROBE_WORKERS", "lots")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Conversion.Concurrency = 0 }},
		{"negative concurrency", func(c *Config) { c.Conversion.Concurrency = -2 }},
		{"zero fallback", func(c *Config) { c.Conversion.DurationFallback = 0 }},
		{"no probe workers", func(c *Config) { c.Probe.Workers = 0 }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Conversion.Concurrency = -1
	assert.NoError(t, cfg.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Watch.Dir = "/incoming"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/incoming", loaded.Watch.Dir)
}

func TestLoad_JSONDurations(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    time.Duration
	}{
		{"duration string", `{"watch": {"debounce": "750ms"}, "probe": {"timeout": "1m"}}`, 750 * time.Millisecond},
		{"nanoseconds", `{"watch": {"debounce": 1500000000}}`, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Watch.Debounce)
			assert.Equal(t, 1, cfg.Conversion.Concurrency)
		})
	}

	cfg, err := Load(filepath.Join(dir, "duration string.json"))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Probe.Timeout)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"watch": {"debounce": "soon"}}`), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestSave_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := DefaultConfig()
	cfg.Watch.Debounce = 3 * time.Second
	cfg.Conversion.DurationFallback = 0.5
	cfg.Watch.Recursive = true

	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"debounce": "3s"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
