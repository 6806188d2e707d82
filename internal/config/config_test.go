package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.Driver != "badger" {
		t.Errorf("Store.Driver = %q, want badger", cfg.Store.Driver)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o", cfg.OpenAI.Model)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("Scheduler.Interval = %v, want 30m", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = true, want false by default")
	}
	if cfg.Spotify.Enabled() {
		t.Error("Spotify.Enabled() = true without credentials")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9090"
log:
  level: debug
scheduler:
  enabled: true
  interval: 45m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MOODTUNE_LOG__LEVEL", "warn")
	t.Setenv("SPOTIFY_ID", "id")
	t.Setenv("SPOTIFY_SECRET", "secret")
	t.Setenv("MOODTUNE_SERVER__CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090 from file", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want env override warn", cfg.Log.Level)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.Interval != 45*time.Minute {
		t.Errorf("Scheduler = %+v, want enabled at 45m", cfg.Scheduler)
	}
	if !cfg.Spotify.Enabled() {
		t.Error("Spotify.Enabled() = false, want legacy env credentials applied")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"MOODTUNE_STORE__DRIVER": "sqlite"}},
		{"postgres without url", map[string]string{"MOODTUNE_STORE__DRIVER": "postgres"}},
		{"bad log format", map[string]string{"MOODTUNE_LOG__FORMAT": "xml"}},
		{"interval too short", map[string]string{"MOODTUNE_SCHEDULER__INTERVAL": "10s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load("")
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MOODTUNE_STORE__DRIVER", "store.driver"},
		{"MOODTUNE_OPENAI__API_KEY", "openai.api_key"},
		{"OPENAI_API_KEY", "openai.api_key"},
		{"DATABASE_URL", "store.url"},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
