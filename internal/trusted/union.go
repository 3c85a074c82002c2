// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evamartin1240/gigline/internal/database"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
)

// snapshotFile is one formatted-zone CSV attributed to a source and a
// snapshot date.
type snapshotFile struct {
	path string
	spec models.SourceSpec
	date string
}

// Union folds all formatted-zone snapshots into one table per source,
// tagging every row with its snapshot date (normalized to YYYYMMDD). A
// source with no snapshots is a no-op, not an error. Snapshots whose header
// does not match the source schema are skipped with a diagnostic; the rest
// are still processed. No deduplication happens here; union is pure
// concatenation.
func (e *Engine) Union(ctx context.Context, formattedDir string) (*models.StageReport, error) {
	entries, err := os.ReadDir(formattedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read formatted directory %s: %w", formattedDir, err)
	}

	report := &models.StageReport{Stage: "trusted.union", Rows: map[models.Source]int64{}}

	snapshots := map[models.Source][]snapshotFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		prefix, rest, found := strings.Cut(entry.Name(), "_")
		spec, ok := models.SpecForPrefix(prefix)
		if !ok || !found {
			diag := fmt.Sprintf("snapshot name unrecognized: %s", entry.Name())
			logging.Warn().Str("file", entry.Name()).Msg("skipping snapshot with unrecognized name")
			metrics.SnapshotsSkipped.WithLabelValues(report.Stage).Inc()
			report.Skipped = append(report.Skipped, diag)
			continue
		}
		snapshots[spec.Source] = append(snapshots[spec.Source], snapshotFile{
			path: filepath.Join(formattedDir, entry.Name()),
			spec: spec,
			date: normalizeSnapshotDate(strings.TrimSuffix(rest, ".csv")),
		})
	}

	for _, spec := range models.Sources() {
		files := snapshots[spec.Source]
		if len(files) == 0 {
			continue
		}
		// Stable snapshot ordering keeps re-runs byte-for-byte reproducible.
		sort.Slice(files, func(i, j int) bool {
			if files[i].date != files[j].date {
				return files[i].date < files[j].date
			}
			return files[i].path < files[j].path
		})

		table := &database.Table{Columns: varcharColumns(spec.TaggedColumns())}
		for _, snap := range files {
			rows, err := readSnapshotCSV(snap, report)
			if err != nil {
				return nil, err
			}
			table.Rows = append(table.Rows, rows...)
		}

		if err := e.db.ReplaceTable(ctx, spec.TrustedTable, table); err != nil {
			return nil, fmt.Errorf("failed to write trusted table %s: %w", spec.TrustedTable, err)
		}
		report.Rows[spec.Source] = int64(len(table.Rows))
		metrics.TrustedRows.WithLabelValues(string(spec.Source)).Set(float64(len(table.Rows)))
		logging.Info().Str("source", string(spec.Source)).
			Int("snapshots", len(files)).Int("rows", len(table.Rows)).
			Msg("snapshots homogenized into a single table")
	}

	report.Message = unionMessage(report)
	return report, nil
}

// readSnapshotCSV reads one snapshot, validates its header against the
// source schema, and returns its rows with the source_date tag appended.
// A mismatched header skips the snapshot with a diagnostic.
func readSnapshotCSV(snap snapshotFile, report *models.StageReport) ([][]any, error) {
	f, err := os.Open(snap.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", snap.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("file", snap.path).Msg("failed to close snapshot")
		}
	}()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		// A malformed snapshot is skipped like a mismatched schema; the
		// remaining snapshots are still processed.
		diag := fmt.Sprintf("snapshot not parseable as CSV: %s: %v", filepath.Base(snap.path), err)
		logging.Warn().Err(err).Str("file", snap.path).Msg("skipping unparseable snapshot")
		metrics.SnapshotsSkipped.WithLabelValues(report.Stage).Inc()
		report.Skipped = append(report.Skipped, diag)
		return nil, nil
	}
	if len(records) == 0 {
		return nil, nil
	}

	if !equalHeader(records[0], snap.spec.Columns) {
		diag := fmt.Sprintf("snapshot schema mismatch: %s has columns %v, want %v",
			filepath.Base(snap.path), records[0], snap.spec.Columns)
		logging.Warn().Str("file", snap.path).Msg("skipping snapshot with mismatched schema")
		metrics.SnapshotsSkipped.WithLabelValues(report.Stage).Inc()
		report.Skipped = append(report.Skipped, diag)
		return nil, nil
	}

	rows := make([][]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]any, 0, len(record)+1)
		for _, cell := range record {
			if cell == "" {
				row = append(row, nil)
			} else {
				row = append(row, cell)
			}
		}
		row = append(row, snap.date)
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeSnapshotDate rewrites a DDMMYYYY capture-time date to YYYYMMDD.
// Unparseable dates are kept verbatim; the tag is provenance, not data.
func normalizeSnapshotDate(raw string) string {
	t, err := time.Parse("02012006", raw)
	if err != nil {
		return raw
	}
	return t.Format("20060102")
}

func varcharColumns(names []string) []database.Column {
	cols := make([]database.Column, len(names))
	for i, name := range names {
		cols[i] = database.Column{Name: name, Type: "VARCHAR"}
	}
	return cols
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func unionMessage(report *models.StageReport) string {
	if len(report.Rows) == 0 {
		return "no snapshots found; nothing to write"
	}
	parts := make([]string, 0, len(report.Rows))
	for _, spec := range models.Sources() {
		if n, ok := report.Rows[spec.Source]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d row(s)", spec.Source, n))
		}
	}
	return "snapshots homogenized (" + strings.Join(parts, ", ") + ")"
}
