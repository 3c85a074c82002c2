// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package formatted

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLandingToFormatted(t *testing.T) {
	persistentDir := t.TempDir()
	formattedDir := filepath.Join(t.TempDir(), "formatted")

	sourceDir := filepath.Join(persistentDir, "spotify_source")
	if err := os.MkdirAll(sourceDir, 0o750); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	snapshot := `[
    {"artist": "Rosalia", "genres": ["flamenco", "pop"], "followers": 25000000, "popularity": 88},
    {"artist": "Unknown Act", "genres": [], "followers": 12, "popularity": 1},
    {"artist": "Quiet Act", "genres": null, "followers": null, "popularity": null}
]`
	if err := os.WriteFile(filepath.Join(sourceDir, "spotify_15032024.json"), []byte(snapshot), 0o640); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	report, err := LandingToFormatted(persistentDir, formattedDir)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("expected no skips, got %v", report.Skipped)
	}

	f, err := os.Open(filepath.Join(formattedDir, "spotify_15032024.csv"))
	if err != nil {
		t.Fatalf("expected CSV snapshot: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d records", len(records))
	}

	wantHeader := []string{"artist", "genres", "followers", "popularity"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("expected header %v, got %v", wantHeader, records[0])
	}
	if records[1][1] != "['flamenco', 'pop']" {
		t.Errorf("expected quoted-token genre list, got %q", records[1][1])
	}
	if records[1][2] != "25000000" {
		t.Errorf("expected integer-looking follower count, got %q", records[1][2])
	}
	if records[2][1] != "[]" {
		t.Errorf("expected empty list serialization, got %q", records[2][1])
	}
	if records[3][1] != "" || records[3][2] != "" {
		t.Errorf("expected null cells to be empty, got %q / %q", records[3][1], records[3][2])
	}
}

func TestLandingToFormattedSkipsUnknownPrefix(t *testing.T) {
	persistentDir := t.TempDir()
	formattedDir := filepath.Join(t.TempDir(), "formatted")

	if err := os.WriteFile(filepath.Join(persistentDir, "bandcamp_15032024.json"), []byte(`[]`), 0o640); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	report, err := LandingToFormatted(persistentDir, formattedDir)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if len(report.Skipped) != 1 {
		t.Errorf("expected 1 skip diagnostic, got %v", report.Skipped)
	}

	entries, err := os.ReadDir(formattedDir)
	if err != nil {
		t.Fatalf("failed to read formatted dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no CSVs written, got %d", len(entries))
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null is empty", nil, ""},
		{"string passes through", "Rosalia", "Rosalia"},
		{"whole float renders without decimals", float64(25000000), "25000000"},
		{"fractional float keeps fraction", 88.5, "88.5"},
		{"list serializes with quoted tokens", []any{"a", "b"}, "['a', 'b']"},
		{"empty list serializes to brackets", []any{}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellString(tt.in); got != tt.want {
				t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
