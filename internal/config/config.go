// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package config loads and validates the Gigline configuration from layered
// sources: struct defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Gigline server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Zones      ZonesConfig      `koanf:"zones"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Formatting FormattingConfig `koanf:"formatting"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the HTTP operational surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists the origins allowed to call the API. The default
	// stays permissive for local operator tooling.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs and RateLimitWindow bound how often stage triggers can
	// be fired per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig configures the trusted-zone DuckDB store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Parent directories are created on
	// startup if missing.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// ZonesConfig holds the on-disk zone directories the pipeline moves
// snapshot files through.
type ZonesConfig struct {
	Raw        string `koanf:"raw" validate:"required"`
	Temporal   string `koanf:"temporal" validate:"required"`
	Persistent string `koanf:"persistent" validate:"required"`
	Formatted  string `koanf:"formatted" validate:"required"`
}

// IngestConfig configures the two upstream API clients.
type IngestConfig struct {
	// ArtistsFile is a newline-separated list of artist names to fetch.
	ArtistsFile string `koanf:"artists_file"`

	Spotify      SpotifyConfig      `koanf:"spotify"`
	Ticketmaster TicketmasterConfig `koanf:"ticketmaster"`

	// RequestDelay is the pause between per-artist API calls, to stay
	// under upstream rate limits.
	RequestDelay time.Duration `koanf:"request_delay"`
}

// SpotifyConfig holds the artist-profile API credentials.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// BaseURL and TokenURL exist so tests can point the client at a stub
	// server. Empty means the public endpoints.
	BaseURL  string `koanf:"base_url"`
	TokenURL string `koanf:"token_url"`
}

// TicketmasterConfig holds the event-listing API credentials.
type TicketmasterConfig struct {
	APIKey string `koanf:"api_key"`

	// BaseURL exists so tests can point the client at a stub server.
	BaseURL string `koanf:"base_url"`
}

// FormattingConfig tunes the consistent-formatting engine.
type FormattingConfig struct {
	// MaxEventYear is the sanity guard for event dates: any parsed date
	// with a year beyond it is treated as a capture artifact and nulled.
	MaxEventYear int `koanf:"max_event_year" validate:"min=1"`

	// RatesFile optionally points at a YAML file overriding the built-in
	// currency-to-EUR conversion table.
	RatesFile string `koanf:"rates_file"`

	// CorrectionsFile optionally points at a YAML file overriding the
	// built-in genre-label corrections mapping.
	CorrectionsFile string `koanf:"corrections_file"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Zones.Temporal == c.Zones.Persistent {
		return fmt.Errorf("zones.temporal and zones.persistent must differ: files are moved between them")
	}
	return nil
}
