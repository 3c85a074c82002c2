// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package trusted implements the trusted-zone data quality engine: the four
// stages that fold versioned per-ingestion snapshots into two canonical,
// deduplicated, consistently formatted tables.
//
// The stages are strictly sequential and operator-triggered:
//
//  1. Union-and-Tag: concatenate all snapshots of a source, tagging rows
//     with their snapshot date.
//  2. Deduplication: remove redundant rows under a per-source equivalence.
//  3. Consistent formatting: normalize dates, times, locations, and
//     currency-converted price ranges.
//  4. Genre canonicalization: collapse near-duplicate genre labels onto a
//     controlled vocabulary.
//
// Re-running the whole chain over an unchanged snapshot set produces the
// same row multiset.
package trusted

import (
	"fmt"

	"github.com/evamartin1240/gigline/internal/config"
	"github.com/evamartin1240/gigline/internal/database"
)

// Engine runs the trusted-zone stages against one DuckDB store.
type Engine struct {
	db           *database.DB
	maxEventYear int
	rates        CurrencyTable
	corrections  GenreCorrections
}

// New builds an engine. The currency table and genre corrections start from
// the built-in defaults and are overridden by the configured files when set.
func New(db *database.DB, cfg *config.FormattingConfig) (*Engine, error) {
	rates := DefaultRates()
	if cfg.RatesFile != "" {
		loaded, err := LoadRates(cfg.RatesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load currency rates: %w", err)
		}
		rates = loaded
	}

	corrections := DefaultCorrections()
	if cfg.CorrectionsFile != "" {
		loaded, err := LoadCorrections(cfg.CorrectionsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load genre corrections: %w", err)
		}
		corrections = loaded
	}

	maxYear := cfg.MaxEventYear
	if maxYear <= 0 {
		maxYear = 2035
	}

	return &Engine{
		db:           db,
		maxEventYear: maxYear,
		rates:        rates,
		corrections:  corrections,
	}, nil
}
