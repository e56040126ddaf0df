package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/soundq/internal/audio"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BACKEND", "SAMPLE_RATE", "CHANNELS", "BUFFER_SIZE", "CACHE_SIZE", "LOG_LEVEL", "CONFIG_HOME"} {
		t.Setenv(EnvPrefix+k, "")
		os.Unsetenv(EnvPrefix + k)
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	missing := filepath.Join(t.TempDir(), "nope.yml")
	cfg, err = Load(missing)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, 44100, cfg.SampleRate)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	path := writeConfig(t, t.TempDir(), `
backend: mock
sample_rate: 48000
channels: 1
buffer_size: 20ms
cache_size: 8
log_level: debug
clips:
  - id: 0
    name: kick
    source: ~/sounds/kick.wav
  - id: 7
    name: Snare
    source: snare.mp3.zst
    volume: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "mock", cfg.Backend)
	assert.Equal(t, audio.Format{SampleRate: 48000, Channels: 1}, cfg.Format())
	assert.Equal(t, 20*time.Millisecond, cfg.BufferSize)
	assert.Equal(t, log.DebugLevel, cfg.Level())

	require.Len(t, cfg.Clips, 2)
	assert.Equal(t, Clip{ID: 7, Name: "Snare", Source: "snare.mp3.zst", Volume: 0.5}, cfg.Clips[1])
	assert.Equal(t, 1.0, cfg.Clips[0].EffectiveVolume())
	assert.Equal(t, 0.5, cfg.Clips[1].EffectiveVolume())

	ac := cfg.Audio(nil)
	assert.Equal(t, audio.KindMock, ac.Kind)
	assert.EqualValues(t, 8<<20, ac.CacheSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	path := writeConfig(t, t.TempDir(), "sample_rate: 48000\nbackend: oto\n")
	t.Setenv("SOUNDQ_SAMPLE_RATE", "22050")
	t.Setenv("SOUNDQ_BUFFER_SIZE", "75ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 22050, cfg.SampleRate)
	assert.Equal(t, 75*time.Millisecond, cfg.BufferSize)
	assert.Equal(t, "oto", cfg.Backend)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	dir := t.TempDir()
	path := writeConfig(t, dir, "backend: auto\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SOUNDQ_BACKEND=mock\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SOUNDQ_BACKEND") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Backend)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "clips: [\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Backend = "alsa" }, "unknown audio backend"},
		{"bad rate", func(c *Config) { c.SampleRate = 96000 }, "sample rate"},
		{"bad channels", func(c *Config) { c.Channels = 3 }, "channels"},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, "buffer_size"},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, "cache_size"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"empty source", func(c *Config) {
			c.Clips = []Clip{{ID: 1, Source: " "}}
		}, "source is empty"},
		{"duplicate id", func(c *Config) {
			c.Clips = []Clip{{ID: 1, Source: "a.wav"}, {ID: 1, Source: "b.wav"}}
		}, "duplicate id 1"},
		{"duplicate name", func(c *Config) {
			c.Clips = []Clip{{ID: 1, Name: "Kick", Source: "a.wav"}, {ID: 2, Name: "kick", Source: "b.wav"}}
		}, "duplicate name"},
		{"volume range", func(c *Config) {
			c.Clips = []Clip{{ID: 1, Source: "a.wav", Volume: 1.5}}
		}, "volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultYAMLMatchesDefault(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	path := writeConfig(t, t.TempDir(), DefaultYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Path = ""
	cfg.Clips = nil
	assert.Equal(t, Default(), cfg)
}

func TestFind(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SOUNDQ_CONFIG_HOME", home)

	path, err := Find()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, FileName), path)

	dirs, err := SearchDirs()
	require.NoError(t, err)
	assert.Equal(t, home, dirs[0])
}

func TestClipLabel(t *testing.T) {
	assert.Equal(t, "kick", Clip{ID: 3, Name: "kick"}.Label())
	assert.Equal(t, "#3", Clip{ID: 3}.Label())
}
