// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package models defines the core domain types shared across the pipeline:
// the Source enumeration, the per-source snapshot specs, and stage reports.
package models

import "fmt"

// Source identifies one of the two origin systems feeding the pipeline.
type Source string

const (
	// SourceArtistProfile is the music-artist profile source
	// (Spotify-compatible ingestion).
	SourceArtistProfile Source = "artist_profile"

	// SourceEventListing is the concert-event listing source
	// (Ticketmaster-compatible ingestion).
	SourceEventListing Source = "event_listing"
)

// SourceDateColumn is the provenance tag added to every row during
// union-and-tag. It carries the snapshot date of the originating file.
const SourceDateColumn = "source_date"

// SourceSpec describes everything stage code needs to know about a source:
// how its snapshot files are named, which columns a snapshot carries, where
// its trusted table lives, and how duplicates are defined. All per-source
// behavior is driven by this table rather than string branching on upstream
// system names.
type SourceSpec struct {
	Source Source

	// FilePrefix is the leading token of snapshot file names
	// (e.g. "spotify_24112024.json").
	FilePrefix string

	// TrustedTable is the canonical table name in the trusted store.
	TrustedTable string

	// Columns is the snapshot schema in emission order, before the
	// source_date tag is appended.
	Columns []string

	// dedupeColumns lists the columns whose values define row equivalence
	// for deduplication. Empty means "every column except source_date",
	// resolved against the live table header at run time.
	dedupeColumns []string
}

// sourceSpecs is the single registry of known sources.
var sourceSpecs = []SourceSpec{
	{
		Source:        SourceArtistProfile,
		FilePrefix:    "spotify",
		TrustedTable:  "artist_profile",
		Columns:       []string{"artist", "genres", "followers", "popularity"},
		dedupeColumns: []string{"artist", SourceDateColumn},
	},
	{
		Source:       SourceEventListing,
		FilePrefix:   "ticketmaster",
		TrustedTable: "event_listing",
		Columns:      []string{"artist", "name", "date", "time", "venue", "location", "price_range"},
		// An identical event re-observed in a later snapshot carries no new
		// information, so source_date is excluded from the comparison.
	},
}

// Sources returns the specs of all known sources in processing order.
func Sources() []SourceSpec {
	out := make([]SourceSpec, len(sourceSpecs))
	copy(out, sourceSpecs)
	return out
}

// SpecFor returns the spec for a source.
func SpecFor(source Source) (SourceSpec, error) {
	for _, s := range sourceSpecs {
		if s.Source == source {
			return s, nil
		}
	}
	return SourceSpec{}, fmt.Errorf("unknown source: %q", source)
}

// SpecForPrefix resolves a snapshot file-name prefix to its source spec.
// The second return is false when the prefix belongs to no known source.
func SpecForPrefix(prefix string) (SourceSpec, bool) {
	for _, s := range sourceSpecs {
		if s.FilePrefix == prefix {
			return s, true
		}
	}
	return SourceSpec{}, false
}

// DedupeKey returns the column names used for duplicate comparison, given
// the live table header. For sources without an explicit key this is every
// column except source_date.
func (s SourceSpec) DedupeKey(header []string) []string {
	if len(s.dedupeColumns) > 0 {
		key := make([]string, len(s.dedupeColumns))
		copy(key, s.dedupeColumns)
		return key
	}
	key := make([]string, 0, len(header))
	for _, col := range header {
		if col != SourceDateColumn {
			key = append(key, col)
		}
	}
	return key
}

// TaggedColumns returns the snapshot schema with the source_date tag
// appended, i.e. the trusted table header right after union-and-tag.
func (s SourceSpec) TaggedColumns() []string {
	cols := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, s.Columns...)
	cols = append(cols, SourceDateColumn)
	return cols
}
