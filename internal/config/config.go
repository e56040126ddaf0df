package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/soundq/internal/audio"
)

const (
	// AppName names the config directory and file.
	AppName = "soundq"
	// FileName is the config file looked up in each config directory.
	FileName = AppName + ".yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SOUNDQ_"
)

// DefaultYAML is written when the user edits a config that does not exist.
//
//go:embed default.yml
var DefaultYAML string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Clip is one clip the engine registers on start.
type Clip struct {
	ID     uint32  `mapstructure:"id"`
	Name   string  `mapstructure:"name"`
	Source string  `mapstructure:"source"`
	Volume float64 `mapstructure:"volume"` // 0 means full volume
}

// EffectiveVolume returns the volume to play the clip at.
func (c Clip) EffectiveVolume() float64 {
	if c.Volume == 0 {
		return 1
	}
	return c.Volume
}

// Label is the name, or the id when the clip has none.
func (c Clip) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%d", c.ID)
}

// Config is the complete soundq configuration.
type Config struct {
	Backend    string        `mapstructure:"backend"     env:"BACKEND"`
	SampleRate int           `mapstructure:"sample_rate" env:"SAMPLE_RATE"`
	Channels   int           `mapstructure:"channels"    env:"CHANNELS"`
	BufferSize time.Duration `mapstructure:"buffer_size" env:"BUFFER_SIZE"`
	CacheSize  int64         `mapstructure:"cache_size"  env:"CACHE_SIZE"` // megabytes
	LogLevel   string        `mapstructure:"log_level"   env:"LOG_LEVEL"`
	Clips      []Clip        `mapstructure:"clips"`

	// Path is the file the config was read from, if any.
	Path string `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:    string(audio.KindAuto),
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.DefaultChannels,
		BufferSize: 50 * time.Millisecond,
		CacheSize:  64,
		LogLevel:   "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("channels", d.Channels)
	v.SetDefault("buffer_size", d.BufferSize)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("log_level", d.LogLevel)
}

// SearchDirs returns the directories a config file is looked up in, most
// specific first: $SOUNDQ_CONFIG_HOME, $XDG_CONFIG_HOME/soundq, then the
// platform user config dirs.
func SearchDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv(EnvPrefix + "CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// Find returns the first existing config file, or the path one would be
// created at when none exists.
func Find() (string, error) {
	dirs, err := SearchDirs()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", errors.New("no configuration directory available")
	}

	for _, d := range dirs {
		p := filepath.Join(d, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dirs[0], FileName), nil
}

// Load reads path, which may be empty or missing, applies .env files and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	cfg := &Config{}
	if path != "" {
		v.SetConfigFile(path)
		switch err := v.ReadInConfig(); {
		case err == nil:
			cfg.Path = v.ConfigFileUsed()
			log.Debug("Using configuration file", "path", cfg.Path)
		case errors.Is(err, fs.ErrNotExist):
			log.Debug("No configuration file", "path", path)
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env next to the config file and in the working
// directory. Variables already set win.
func loadDotEnv(path string) error {
	var files []string
	if path != "" {
		files = append(files, filepath.Join(filepath.Dir(path), ".env"))
	}
	files = append(files, ".env")

	seen := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
		log.Debug("Loaded environment file", "path", abs)
	}
	return nil
}

// Validate checks every field and clip.
func (c *Config) Validate() error {
	var errs []error

	if _, err := audio.ParseKind(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if err := c.Format().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer_size must be positive, got %v", c.BufferSize))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	ids := map[uint32]bool{}
	names := map[string]bool{}
	for i, clip := range c.Clips {
		if strings.TrimSpace(clip.Source) == "" {
			errs = append(errs, fmt.Errorf("clip %d: source is empty", i))
		}
		if ids[clip.ID] {
			errs = append(errs, fmt.Errorf("clip %d: duplicate id %d", i, clip.ID))
		}
		ids[clip.ID] = true

		if clip.Name != "" {
			n := strings.ToLower(clip.Name)
			if names[n] {
				errs = append(errs, fmt.Errorf("clip %d: duplicate name %q", i, clip.Name))
			}
			names[n] = true
		}
		if clip.Volume < 0 || clip.Volume > 1 {
			errs = append(errs, fmt.Errorf("clip %d: volume must be between 0 and 1, got %v", i, clip.Volume))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Format returns the audio output format.
func (c *Config) Format() audio.Format {
	return audio.Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Level returns the log level, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// CacheBytes is the decoded clip cache budget in bytes.
func (c *Config) CacheBytes() int64 {
	return c.CacheSize << 20
}

// Audio returns the backend configuration.
func (c *Config) Audio(logger *log.Logger) audio.Config {
	kind, _ := audio.ParseKind(c.Backend)
	return audio.Config{
		Kind:       kind,
		Format:     c.Format(),
		BufferSize: c.BufferSize,
		CacheSize:  c.CacheBytes(),
		Logger:     logger,
	}
}
