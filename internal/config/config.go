// Package config loads ytrater settings from ~/.yt_rater/config.toml with
// YT_RATER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	DirName        = ".yt_rater"
	ConfigFileName = "config.toml"
	CacheFileName  = "cache.json"

	EnvPrefix     = "YT_RATER_"
	EnvConfigPath = "YT_RATER_CONFIG"
)

// ErrMissingCredential is returned when a required API key is not set
var ErrMissingCredential = errors.New("missing API key")

// Config holds all application configuration
type Config struct {
	YouTube YouTubeConfig `mapstructure:"youtube" envPrefix:"YOUTUBE_"`
	Gemini  GeminiConfig  `mapstructure:"gemini" envPrefix:"GEMINI_"`
	Cache   CacheConfig   `mapstructure:"cache" envPrefix:"CACHE_"`
	Server  ServerConfig  `mapstructure:"server" envPrefix:"SERVER_"`
	Log     LogConfig     `mapstructure:"log" envPrefix:"LOG_"`

	// path of the file this config was read from
	path string
}

type YouTubeConfig struct {
	APIKey              string  `mapstructure:"api_key" env:"API_KEY"`
	MaxCommentsPerVideo int     `mapstructure:"max_comments_per_video" env:"MAX_COMMENTS_PER_VIDEO"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	RequestsPerSecond   float64 `mapstructure:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key" env:"API_KEY"`
	Model          string `mapstructure:"model" env:"MODEL"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

type CacheConfig struct {
	ExpirationDays int    `mapstructure:"expiration_days" env:"EXPIRATION_DAYS"`
	File           string `mapstructure:"file" env:"FILE"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host" env:"HOST"`
	Port        int      `mapstructure:"port" env:"PORT"`
	CORSOrigins []string `mapstructure:"cors_origins" env:"CORS_ORIGINS"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL"`
	Format string `mapstructure:"format" env:"FORMAT"`
}

// Dir returns ~/.yt_rater
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns the config file path, honoring YT_RATER_CONFIG
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.max_comments_per_video", 50)
	v.SetDefault("youtube.timeout_seconds", 15)
	v.SetDefault("youtube.requests_per_second", 5.0)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("gemini.timeout_seconds", 30)
	v.SetDefault("cache.expiration_days", 7)
	v.SetDefault("cache.file", filepath.Join(dir, CacheFileName))
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8888)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	setDefaults(v, filepath.Dir(path))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

// Load reads path (DefaultPath when empty), creating it with defaults when
// missing, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.Cache.File = expandHome(cfg.Cache.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Set persists a single dotted key (e.g. "gemini.api_key") to the file at
// path. The value is stored as a string unless the key already holds a number.
func Set(path, key, value string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	v, err := newViper(path)
	if err != nil {
		return err
	}
	if !v.IsSet(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	var parsed any = value
	switch v.Get(key).(type) {
	case int, int64:
		var n int
		if _, err := fmt.Sscan(value, &n); err != nil {
			return fmt.Errorf("%s expects an integer: %w", key, err)
		}
		parsed = n
	case float64:
		var f float64
		if _, err := fmt.Sscan(value, &f); err != nil {
			return fmt.Errorf("%s expects a number: %w", key, err)
		}
		parsed = f
	case []any, []string:
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		parsed = parts
	}

	v.Set(key, parsed)
	return v.WriteConfigAs(path)
}

// Validate checks value ranges; API keys are checked by RequireCredentials
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.YouTube,
		validation.Field(&c.YouTube.MaxCommentsPerVideo, validation.Required, validation.Min(1)),
		validation.Field(&c.YouTube.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.YouTube.RequestsPerSecond, validation.Min(0.0)),
	); err != nil {
		return fmt.Errorf("youtube: %w", err)
	}
	if err := validation.ValidateStruct(&c.Gemini,
		validation.Field(&c.Gemini.TimeoutSeconds, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := validation.ValidateStruct(&c.Cache,
		validation.Field(&c.Cache.ExpirationDays, validation.Min(0)),
		validation.Field(&c.Cache.File, validation.Required),
	); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Format, validation.In("json", "console")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// RequireCredentials reports which API keys are missing
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.YouTube.APIKey == "" {
		missing = append(missing, "youtube.api_key")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "gemini.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.path
}

func (c *Config) CacheExpiration() time.Duration {
	return time.Duration(c.Cache.ExpirationDays) * 24 * time.Hour
}

func (c *Config) YouTubeTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
