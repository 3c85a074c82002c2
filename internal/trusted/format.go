// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/evamartin1240/gigline/internal/database"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
)

// missingTokens are the literal spellings of "no value" that upstream emits
// into location, price_range, and venue. They are rewritten to null before
// any parsing so a sentinel never shows up as a parse failure.
var missingTokens = map[string]struct{}{
	"N/A":      {},
	"NA":       {},
	"N/A, N/A": {},
}

const (
	snapshotDateLayout = "2006-01-02"
	trustedDateLayout  = "02-01-2006"
	timeLayout         = "15:04:05"
)

// Format normalizes field representations in the trusted tables so values
// become directly comparable. Every transform is stateless per row; a
// malformed field degrades to null for that field only and never aborts the
// row or the batch.
//
// Event listings get the full ruleset: missing-value canonicalization, date
// and time normalization, location splitting, and price-range conversion to
// EUR. Artist profiles only get the empty-genres sentinel substitution.
func (e *Engine) Format(ctx context.Context) (*models.StageReport, error) {
	report := &models.StageReport{Stage: "trusted.format", Rows: map[models.Source]int64{}}

	for _, spec := range models.Sources() {
		exists, err := e.db.TableExists(ctx, spec.TrustedTable)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}

		table, err := e.db.ReadTable(ctx, spec.TrustedTable)
		if err != nil {
			return nil, err
		}

		switch spec.Source {
		case models.SourceArtistProfile:
			formatArtistProfiles(table)
		case models.SourceEventListing:
			table = e.formatEventListings(table)
		}

		if err := e.db.ReplaceTable(ctx, spec.TrustedTable, table); err != nil {
			return nil, fmt.Errorf("failed to write formatted table %s: %w", spec.TrustedTable, err)
		}
		report.Rows[spec.Source] = int64(len(table.Rows))
		metrics.TrustedRows.WithLabelValues(string(spec.Source)).Set(float64(len(table.Rows)))
		logging.Info().Str("source", string(spec.Source)).
			Int("rows", len(table.Rows)).Msg("table formatted")
	}

	report.Message = formatMessage(report)
	return report, nil
}

// formatArtistProfiles replaces the native empty-collection serialization of
// genres with the explicit "NA" marker. Nothing else changes in this stage.
func formatArtistProfiles(table *database.Table) {
	idx := table.ColumnIndex("genres")
	if idx < 0 {
		return
	}
	for _, row := range table.Rows {
		switch v := row[idx].(type) {
		case nil:
			row[idx] = genreNASentinel
		case string:
			if v == "" || v == "[]" {
				row[idx] = genreNASentinel
			}
		}
	}
}

// formatEventListings applies the event-listing ruleset and reshapes the
// table: the composite location column is dropped, replaced by city and
// country, and the two EUR price columns are appended.
func (e *Engine) formatEventListings(table *database.Table) *database.Table {
	dateIdx := table.ColumnIndex("date")
	timeIdx := table.ColumnIndex("time")
	venueIdx := table.ColumnIndex("venue")
	locationIdx := table.ColumnIndex("location")
	priceIdx := table.ColumnIndex("price_range")

	// On a re-run the location column is already gone and the derived
	// columns already exist; reshape only what is still missing so the
	// table never grows duplicate columns.
	addGeo := table.ColumnIndex("city") < 0 && locationIdx >= 0
	addPrices := table.ColumnIndex("min_price_EUR") < 0
	minIdx := table.ColumnIndex("min_price_EUR")
	maxIdx := table.ColumnIndex("max_price_EUR")

	out := &database.Table{}
	for i, col := range table.Columns {
		if i == locationIdx {
			continue
		}
		out.Columns = append(out.Columns, col)
	}
	if addGeo {
		out.Columns = append(out.Columns,
			database.Column{Name: "city", Type: "VARCHAR"},
			database.Column{Name: "country", Type: "VARCHAR"},
		)
	}
	if addPrices {
		out.Columns = append(out.Columns,
			database.Column{Name: "min_price_EUR", Type: "DOUBLE"},
			database.Column{Name: "max_price_EUR", Type: "DOUBLE"},
		)
	}

	for _, row := range table.Rows {
		// Missing-value canonicalization runs before any parsing.
		canonicalizeMissing(row, venueIdx)
		canonicalizeMissing(row, locationIdx)
		canonicalizeMissing(row, priceIdx)

		if dateIdx >= 0 {
			row[dateIdx] = e.normalizeDate(row[dateIdx])
		}
		if timeIdx >= 0 {
			row[timeIdx] = normalizeTime(row[timeIdx])
		}

		minEUR, maxEUR := e.convertPriceRange(cellAt(row, priceIdx))
		if !addPrices && minIdx >= 0 && maxIdx >= 0 {
			row[minIdx], row[maxIdx] = minEUR, maxEUR
		}

		outRow := make([]any, 0, len(out.Columns))
		for i, cell := range row {
			if i == locationIdx {
				continue
			}
			outRow = append(outRow, cell)
		}
		if addGeo {
			city, country := splitLocation(cellAt(row, locationIdx))
			outRow = append(outRow, city, country)
		}
		if addPrices {
			outRow = append(outRow, minEUR, maxEUR)
		}
		out.Rows = append(out.Rows, outRow)
	}
	return out
}

// canonicalizeMissing nulls a cell whose value is one of the literal
// missing-value tokens.
func canonicalizeMissing(row []any, idx int) {
	if idx < 0 {
		return
	}
	if s, ok := row[idx].(string); ok {
		if _, missing := missingTokens[strings.TrimSpace(s)]; missing {
			row[idx] = nil
		}
	}
}

// normalizeDate parses a YYYY-MM-DD value and reformats it DD-MM-YYYY. Dates
// past the configured guard year are treated as capture artifacts and
// nulled. Unparseable values become null: best-effort cleaning, not strict
// validation.
func (e *Engine) normalizeDate(cell any) any {
	s, ok := cell.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(snapshotDateLayout, strings.TrimSpace(s))
	if err != nil {
		logging.Debug().Str("value", s).Msg("unparseable event date set to null")
		return nil
	}
	if t.Year() > e.maxEventYear {
		logging.Debug().Str("value", s).Int("max_year", e.maxEventYear).
			Msg("far-future event date set to null")
		return nil
	}
	return t.Format(trustedDateLayout)
}

// normalizeTime validates an HH:MM:SS value; unparseable values become null.
func normalizeTime(cell any) any {
	s, ok := cell.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		logging.Debug().Str("value", s).Msg("unparseable event time set to null")
		return nil
	}
	return t.Format(timeLayout)
}

// splitLocation splits a "city, country" composite on the last comma, so
// city names that contain commas stay intact. A value with no comma yields
// null for both parts.
func splitLocation(cell any) (city, country any) {
	s, ok := cell.(string)
	if !ok {
		return nil, nil
	}
	idx := strings.LastIndex(s, ",")
	if idx < 0 {
		return nil, nil
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:])
}

// convertPriceRange parses "<min>-<max> <CUR>" and converts both bounds to
// EUR using the engine's currency table, rounded to 2 decimals. Unknown
// currencies and unparseable numerics yield null for both bounds.
func (e *Engine) convertPriceRange(cell any) (minEUR, maxEUR any) {
	s, ok := cell.(string)
	if !ok {
		return nil, nil
	}

	sepIdx := strings.LastIndex(strings.TrimSpace(s), " ")
	if sepIdx < 0 {
		logging.Debug().Str("value", s).Msg("unparseable price range set to null")
		return nil, nil
	}
	trimmed := strings.TrimSpace(s)
	prices, currency := trimmed[:sepIdx], trimmed[sepIdx+1:]

	minStr, maxStr, found := strings.Cut(prices, "-")
	if !found {
		logging.Debug().Str("value", s).Msg("unparseable price range set to null")
		return nil, nil
	}

	minVal, errMin := strconv.ParseFloat(strings.TrimSpace(minStr), 64)
	maxVal, errMax := strconv.ParseFloat(strings.TrimSpace(maxStr), 64)
	if errMin != nil || errMax != nil {
		logging.Debug().Str("value", s).Msg("non-numeric price bounds set to null")
		return nil, nil
	}

	rate, known := e.rates[currency]
	if !known {
		logging.Debug().Str("currency", currency).Msg("unknown currency, prices set to null")
		return nil, nil
	}

	return roundCents(minVal * rate), roundCents(maxVal * rate)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func cellAt(row []any, idx int) any {
	if idx < 0 {
		return nil
	}
	return row[idx]
}

func formatMessage(report *models.StageReport) string {
	if len(report.Rows) == 0 {
		return "no trusted tables present; nothing to format"
	}
	parts := make([]string, 0, len(report.Rows))
	for _, spec := range models.Sources() {
		if n, ok := report.Rows[spec.Source]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d row(s) formatted", spec.Source, n))
		}
	}
	return strings.Join(parts, "; ")
}
