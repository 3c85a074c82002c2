// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// An empty temp dir keeps any developer config.yaml out of the search
	// path.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 8480 {
		t.Errorf("expected default port 8480, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/trusted/trusted.duckdb" {
		t.Errorf("unexpected default database path %s", cfg.Database.Path)
	}
	if cfg.Formatting.MaxEventYear != 2035 {
		t.Errorf("expected default guard year 2035, got %d", cfg.Formatting.MaxEventYear)
	}
	if cfg.Ingest.RequestDelay != 500*time.Millisecond {
		t.Errorf("expected default request delay 500ms, got %s", cfg.Ingest.RequestDelay)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected default logging config %+v", cfg.Logging)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
server:
  port: 9000
zones:
  raw: /var/gigline/raw
formatting:
  max_event_year: 2040
`
	path := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o640); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000 from file, got %d", cfg.Server.Port)
	}
	if cfg.Zones.Raw != "/var/gigline/raw" {
		t.Errorf("expected raw zone from file, got %s", cfg.Zones.Raw)
	}
	if cfg.Formatting.MaxEventYear != 2040 {
		t.Errorf("expected guard year 2040 from file, got %d", cfg.Formatting.MaxEventYear)
	}
	// Untouched keys keep their defaults.
	if cfg.Zones.Temporal != "data/landing/temporal" {
		t.Errorf("expected default temporal zone, got %s", cfg.Zones.Temporal)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("GIGLINE_SERVER_PORT", "9481")
	t.Setenv("GIGLINE_DATABASE_MAX_MEMORY", "2GB")
	t.Setenv("GIGLINE_INGEST_SPOTIFY_CLIENT_ID", "abc123")
	t.Setenv("GIGLINE_INGEST_TICKETMASTER_API_KEY", "tm-key")
	t.Setenv("GIGLINE_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9481 {
		t.Errorf("expected port 9481 from env, got %d", cfg.Server.Port)
	}
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("expected max memory 2GB from env, got %s", cfg.Database.MaxMemory)
	}
	if cfg.Ingest.Spotify.ClientID != "abc123" {
		t.Errorf("expected nested spotify client id, got %s", cfg.Ingest.Spotify.ClientID)
	}
	if cfg.Ingest.Ticketmaster.APIKey != "tm-key" {
		t.Errorf("expected nested ticketmaster api key, got %s", cfg.Ingest.Ticketmaster.APIKey)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("expected CORS origins %v, got %v", want, cfg.Server.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		if err := defaultConfig().Validate(); err != nil {
			t.Errorf("expected defaults to validate: %v", err)
		}
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Server.Port = 70000
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for port 70000")
		}
	})

	t.Run("rejects identical temporal and persistent zones", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Zones.Persistent = cfg.Zones.Temporal
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for identical landing zones")
		}
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Logging.Level = "verbose"
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for unknown log level")
		}
	})
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GIGLINE_SERVER_PORT", "server.port"},
		{"GIGLINE_DATABASE_MAX_MEMORY", "database.max_memory"},
		{"GIGLINE_INGEST_SPOTIFY_CLIENT_SECRET", "ingest.spotify.client_secret"},
		{"GIGLINE_INGEST_TICKETMASTER_API_KEY", "ingest.ticketmaster.api_key"},
		{"GIGLINE_INGEST_REQUEST_DELAY", "ingest.request_delay"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envTransform(tt.in); got != tt.want {
				t.Errorf("envTransform(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
