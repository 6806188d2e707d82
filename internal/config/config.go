// Package config loads moodtune configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when the loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	User      UserConfig      `koanf:"user"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"` // requests per minute per IP, 0 disables
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=badger postgres"`
	Path   string `koanf:"path" validate:"required_if=Driver badger"`
	URL    string `koanf:"url" validate:"required_if=Driver postgres"`
}

// SpotifyConfig configures the catalog provider. Leaving the credentials
// empty runs on the static fallback catalog only.
type SpotifyConfig struct {
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	TokenCachePath string        `koanf:"token_cache_path"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// Enabled reports whether Spotify credentials are configured.
func (c SpotifyConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OpenAIConfig configures the mood inference backend. An empty API key
// runs the heuristic engine only.
type OpenAIConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url" validate:"required,url"`
	Model       string        `koanf:"model" validate:"required"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `koanf:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Enabled reports whether an API key is configured.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// SchedulerConfig configures periodic auto-analysis.
type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"gte=1m"`
	Limit    int           `koanf:"limit" validate:"gte=1,lte=50"`
}

// UserConfig describes the single local user the dashboard serves.
type UserConfig struct {
	ID          string   `koanf:"id" validate:"required"`
	DisplayName string   `koanf:"display_name"`
	MusicGenres []string `koanf:"music_genres"`
	HealthGoals []string `koanf:"health_goals"`
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			RateLimit:       120,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Driver: "badger",
			Path:   "data/moodtune",
		},
		Spotify: SpotifyConfig{
			RequestTimeout: 10 * time.Second,
			BreakerTimeout: 2 * time.Minute,
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: 0.3,
			MaxTokens:   500,
			Timeout:     30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: 30 * time.Minute,
			Limit:    10,
		},
		User: UserConfig{
			ID:          "demo",
			DisplayName: "Demo User",
			MusicGenres: []string{"pop", "electronic", "indie"},
			HealthGoals: []string{"improve_sleep", "increase_activity", "reduce_stress"},
		},
	}
}
