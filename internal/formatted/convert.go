// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package formatted converts persistent-landing JSON snapshots into the
// formatted zone: one wide CSV per snapshot file, with a fixed per-source
// column order and stringly-typed cells.
package formatted

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
)

// LandingToFormatted walks the persistent landing zone and converts each
// JSON snapshot into a CSV snapshot with the same base name. Files whose
// name matches no known source prefix are skipped with a diagnostic.
func LandingToFormatted(persistentDir, formattedDir string) (*models.StageReport, error) {
	if err := os.MkdirAll(formattedDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create formatted directory: %w", err)
	}

	report := &models.StageReport{Stage: "formatted"}
	converted := 0

	walkErr := filepath.WalkDir(persistentDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		prefix, _, _ := strings.Cut(d.Name(), "_")
		spec, ok := models.SpecForPrefix(prefix)
		if !ok {
			diag := fmt.Sprintf("snapshot name unrecognized: %s", d.Name())
			logging.Warn().Str("file", d.Name()).Msg("skipping snapshot with unrecognized name")
			metrics.SnapshotsSkipped.WithLabelValues(report.Stage).Inc()
			report.Skipped = append(report.Skipped, diag)
			return nil
		}

		csvName := strings.TrimSuffix(d.Name(), ".json") + ".csv"
		csvPath := filepath.Join(formattedDir, csvName)
		if err := convertSnapshot(path, csvPath, spec); err != nil {
			return err
		}
		logging.Info().Str("snapshot", d.Name()).Str("csv", csvName).Msg("converted snapshot")
		converted++
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk persistent landing zone: %w", walkErr)
	}

	report.Message = fmt.Sprintf("converted %d snapshot(s) to CSV", converted)
	return report, nil
}

// convertSnapshot decodes one JSON snapshot (an array of flat records) and
// writes it as CSV in the source's column order.
func convertSnapshot(jsonPath, csvPath string, spec models.SourceSpec) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", jsonPath, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", jsonPath, err)
	}

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", csvPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("file", csvPath).Msg("failed to close CSV file")
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(spec.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(spec.Columns))
		for i, col := range spec.Columns {
			row[i] = cellString(record[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", csvPath, err)
	}
	return nil
}

// cellString renders one JSON value as a CSV cell. Lists keep the
// quoted-token serialization the downstream genre parser expects.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		return serializeList(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// serializeList renders a list of values as "['a', 'b']", or "[]" when empty.
func serializeList(items []any) string {
	if len(items) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(fmt.Sprintf("%v", item))
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
