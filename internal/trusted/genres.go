// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/models"
)

// genreNASentinel is the explicit "no genres" marker. An empty genre list is
// never stored as a native empty collection.
const genreNASentinel = "NA"

// genreTokenPattern extracts the quoted tokens of a serialized genre list,
// e.g. "['hip hop', 'jazz']".
var genreTokenPattern = regexp.MustCompile(`'(.*?)'`)

// GenreCorrections maps known synonym or misspelled genre labels to one
// canonical label. Curated manually; labels not present pass through
// unchanged.
type GenreCorrections map[string]string

// DefaultCorrections returns the built-in corrections. A YAML file
// configured via formatting.corrections_file replaces it entirely.
func DefaultCorrections() GenreCorrections {
	return GenreCorrections{
		"urban latino":                "urbano latino",
		"latin urban":                 "urbano latino",
		"dance-pop":                   "dance pop",
		"turkish singer-songwriter":   "singer-songwriter",
		"irish singer-songwriter":     "singer-songwriter",
		"alt hip-hop":                 "alternative hip hop",
		"hiphop":                      "hip hop",
		"italian trap":                "trap italiano",
		"latin reggaeton":             "reggaeton",
		"spanish rock":                "rock en espanol",
		"contemporary jazz":           "jazz",
		"k-pop boy group":             "k-pop",
	}
}

// LoadCorrections reads a corrections mapping from a YAML file of
// "label: canonical" pairs.
func LoadCorrections(path string) (GenreCorrections, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read corrections file %s: %w", path, err)
	}

	corrections := GenreCorrections{}
	if err := k.Unmarshal("", &corrections); err != nil {
		return nil, fmt.Errorf("failed to parse corrections file %s: %w", path, err)
	}
	if len(corrections) == 0 {
		return nil, fmt.Errorf("corrections file %s defines no mappings", path)
	}
	return corrections, nil
}

// ParseGenres extracts the genre labels from their serialized quoted-token
// form. The "NA" sentinel parses to an empty list.
func ParseGenres(serialized string) []string {
	if strings.TrimSpace(serialized) == genreNASentinel {
		return []string{}
	}
	matches := genreTokenPattern.FindAllStringSubmatch(serialized, -1)
	genres := make([]string, 0, len(matches))
	for _, m := range matches {
		genres = append(genres, m[1])
	}
	return genres
}

// Apply rewrites every known label to its canonical form. Order is
// preserved and within-row duplicates are kept; collapsing them is a
// downstream feature-engineering concern.
func (c GenreCorrections) Apply(genres []string) []string {
	out := make([]string, len(genres))
	for i, genre := range genres {
		if canonical, ok := c[genre]; ok {
			out[i] = canonical
		} else {
			out[i] = genre
		}
	}
	return out
}

// serializeGenres renders a genre list back into its stored form. An empty
// list keeps the explicit "NA" marker.
func serializeGenres(genres []string) string {
	if len(genres) == 0 {
		return genreNASentinel
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, genre := range genres {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(genre)
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

// CanonicalizeGenres collapses near-duplicate genre labels in the
// artist-profile table onto the controlled vocabulary. Only the
// artist-profile source has a categorical-label field; event listings are
// untouched.
func (e *Engine) CanonicalizeGenres(ctx context.Context) (*models.StageReport, error) {
	report := &models.StageReport{Stage: "trusted.genres", Rows: map[models.Source]int64{}}

	spec, err := models.SpecFor(models.SourceArtistProfile)
	if err != nil {
		return nil, err
	}

	exists, err := e.db.TableExists(ctx, spec.TrustedTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		report.Message = "no artist_profile table present; nothing to canonicalize"
		return report, nil
	}

	table, err := e.db.ReadTable(ctx, spec.TrustedTable)
	if err != nil {
		return nil, err
	}

	idx := table.ColumnIndex("genres")
	if idx < 0 {
		return nil, fmt.Errorf("genres column missing from table %s", spec.TrustedTable)
	}

	rewritten := 0
	for _, row := range table.Rows {
		s, ok := row[idx].(string)
		if !ok {
			continue
		}
		genres := ParseGenres(s)
		corrected := e.corrections.Apply(genres)
		serialized := serializeGenres(corrected)
		if serialized != s {
			rewritten++
		}
		row[idx] = serialized
	}

	if err := e.db.ReplaceTable(ctx, spec.TrustedTable, table); err != nil {
		return nil, fmt.Errorf("failed to write canonicalized table %s: %w", spec.TrustedTable, err)
	}
	report.Rows[spec.Source] = int64(len(table.Rows))
	logging.Info().Int("rows", len(table.Rows)).Int("rewritten", rewritten).
		Msg("genre labels canonicalized")

	report.Message = fmt.Sprintf("genre labels canonicalized (%d of %d row(s) rewritten)",
		rewritten, len(table.Rows))
	return report, nil
}
