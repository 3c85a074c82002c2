// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"context"
	"fmt"
	"strings"

	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
)

// Dedupe removes redundant rows from the trusted tables under each source's
// equivalence rule:
//
//   - event_listing: rows agreeing on every column except source_date are
//     duplicates; an identical event re-observed in a later snapshot
//     carries no new information.
//   - artist_profile: rows agreeing on (artist, source_date) are duplicates;
//     the same artist on different snapshot dates is retained to track
//     metric drift over time.
//
// The first-seen row in table scan order survives. Nulls compare equal to
// nulls. The operation is total on well-typed input and reports the
// surviving row counts per table.
func (e *Engine) Dedupe(ctx context.Context) (*models.StageReport, error) {
	report := &models.StageReport{Stage: "trusted.dedupe", Rows: map[models.Source]int64{}}

	for _, spec := range models.Sources() {
		exists, err := e.db.TableExists(ctx, spec.TrustedTable)
		if err != nil {
			return nil, err
		}
		if !exists {
			// No trusted table yet for this source; nothing to deduplicate.
			continue
		}

		table, err := e.db.ReadTable(ctx, spec.TrustedTable)
		if err != nil {
			return nil, err
		}

		header := table.Header()
		keyIdx := make([]int, 0, len(header))
		for _, col := range spec.DedupeKey(header) {
			idx := table.ColumnIndex(col)
			if idx < 0 {
				return nil, fmt.Errorf("dedupe key column %q missing from table %s", col, spec.TrustedTable)
			}
			keyIdx = append(keyIdx, idx)
		}

		seen := make(map[string]struct{}, len(table.Rows))
		kept := table.Rows[:0:0]
		for _, row := range table.Rows {
			key := rowKey(row, keyIdx)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, row)
		}
		dropped := len(table.Rows) - len(kept)
		table.Rows = kept

		if err := e.db.ReplaceTable(ctx, spec.TrustedTable, table); err != nil {
			return nil, fmt.Errorf("failed to write deduplicated table %s: %w", spec.TrustedTable, err)
		}
		report.Rows[spec.Source] = int64(len(kept))
		metrics.TrustedRows.WithLabelValues(string(spec.Source)).Set(float64(len(kept)))
		logging.Info().Str("source", string(spec.Source)).
			Int("kept", len(kept)).Int("dropped", dropped).
			Msg("table deduplicated")
	}

	report.Message = dedupeMessage(report)
	return report, nil
}

// rowKey builds the equivalence key of a row over the given column indexes.
// The encoding distinguishes null from any string value and keeps cell
// boundaries unambiguous.
func rowKey(row []any, keyIdx []int) string {
	var b strings.Builder
	for _, idx := range keyIdx {
		switch v := row[idx].(type) {
		case nil:
			b.WriteByte(0x00)
		case string:
			b.WriteByte(0x01)
			b.WriteString(v)
		default:
			b.WriteByte(0x01)
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

func dedupeMessage(report *models.StageReport) string {
	if len(report.Rows) == 0 {
		return "no trusted tables present; nothing to deduplicate"
	}
	parts := make([]string, 0, len(report.Rows))
	for _, spec := range models.Sources() {
		if n, ok := report.Rows[spec.Source]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d row(s) after deduplication", spec.Source, n))
		}
	}
	return strings.Join(parts, "; ")
}
