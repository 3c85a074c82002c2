// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/evamartin1240/gigline/internal/database"
	"github.com/evamartin1240/gigline/internal/models"
)

func TestParseGenres(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two genres", "['hip hop', 'jazz']", []string{"hip hop", "jazz"}},
		{"single genre", "['flamenco']", []string{"flamenco"}},
		{"NA sentinel parses empty", "NA", []string{}},
		{"empty brackets parse empty", "[]", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseGenres(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseGenres(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCorrectionsApply(t *testing.T) {
	corrections := DefaultCorrections()

	t.Run("known labels are rewritten", func(t *testing.T) {
		got := corrections.Apply([]string{"hiphop", "urban latino", "dance-pop"})
		want := []string{"hip hop", "urbano latino", "dance pop"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("unknown labels pass through in order", func(t *testing.T) {
		got := corrections.Apply([]string{"jazz", "hiphop", "flamenco"})
		want := []string{"jazz", "hip hop", "flamenco"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("duplicates produced by correction are kept", func(t *testing.T) {
		got := corrections.Apply([]string{"hip hop", "hiphop"})
		want := []string{"hip hop", "hip hop"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestSerializeGenres(t *testing.T) {
	if got := serializeGenres([]string{"hip hop", "jazz"}); got != "['hip hop', 'jazz']" {
		t.Errorf("unexpected serialization %q", got)
	}
	if got := serializeGenres(nil); got != "NA" {
		t.Errorf("expected NA for empty list, got %q", got)
	}
}

func TestCanonicalizeGenres(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	table := &database.Table{
		Columns: artistColumns(),
		Rows: [][]any{
			{"A", "['hiphop', 'jazz']", "100", "10", "20240315"},
			{"B", "['flamenco']", "200", "20", "20240315"},
			{"C", "NA", "300", "30", "20240315"},
		},
	}
	if err := engine.db.ReplaceTable(ctx, "artist_profile", table); err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}

	report, err := engine.CanonicalizeGenres(ctx)
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	if report.Rows[models.SourceArtistProfile] != 3 {
		t.Errorf("expected 3 rows reported, got %d", report.Rows[models.SourceArtistProfile])
	}

	out, err := engine.db.ReadTable(ctx, "artist_profile")
	if err != nil {
		t.Fatalf("failed to read table: %v", err)
	}
	idx := out.ColumnIndex("genres")
	if out.Rows[0][idx] != "['hip hop', 'jazz']" {
		t.Errorf("expected corrected labels, got %v", out.Rows[0][idx])
	}
	if out.Rows[1][idx] != "['flamenco']" {
		t.Errorf("expected untouched labels, got %v", out.Rows[1][idx])
	}
	if out.Rows[2][idx] != "NA" {
		t.Errorf("expected NA sentinel preserved, got %v", out.Rows[2][idx])
	}
}

func TestCanonicalizeGenresNoTable(t *testing.T) {
	engine := newTestEngine(t)
	report, err := engine.CanonicalizeGenres(context.Background())
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("expected no rows reported, got %v", report.Rows)
	}
}

func TestLoadCorrections(t *testing.T) {
	t.Run("valid file replaces defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrections.yaml")
		if err := os.WriteFile(path, []byte("synthpop: synth-pop\n"), 0o640); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		corrections, err := LoadCorrections(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if corrections["synthpop"] != "synth-pop" {
			t.Errorf("expected synth-pop, got %q", corrections["synthpop"])
		}
		if _, ok := corrections["hiphop"]; ok {
			t.Error("expected defaults to be replaced, not merged")
		}
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrections.yaml")
		if err := os.WriteFile(path, []byte("{}\n"), 0o640); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := LoadCorrections(path); err == nil {
			t.Error("expected error for empty corrections file")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadCorrections(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
