// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package landing implements the two landing-zone stages: staging raw
// ingestion files into the temporal zone, and moving them into the
// persistent zone renamed by source and ingestion date.
package landing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
)

// RawToTemporal copies every regular file from the raw zone into the
// temporal landing zone. Contents are copied, not moved; the raw artifacts
// stay untouched.
func RawToTemporal(rawDir, temporalDir string) (*models.StageReport, error) {
	if err := os.MkdirAll(temporalDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create temporal landing directory: %w", err)
	}

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw directory %s: %w", rawDir, err)
	}

	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(rawDir, entry.Name())
		dst := filepath.Join(temporalDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		logging.Debug().Str("from", src).Str("to", dst).Msg("copied raw file")
		copied++
	}

	return &models.StageReport{
		Stage:   "landing.temporal",
		Message: fmt.Sprintf("copied %d file(s) to the temporal landing zone", copied),
	}, nil
}

// TemporalToPersistent moves each temporal file into the persistent landing
// zone under a per-source subdirectory, renamed "<prefix>_<DDMMYYYY>.json"
// using the file's modification date as the ingestion date. Files whose name
// matches no known source prefix are skipped with a diagnostic and left in
// place.
func TemporalToPersistent(temporalDir, persistentDir string) (*models.StageReport, error) {
	entries, err := os.ReadDir(temporalDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temporal directory %s: %w", temporalDir, err)
	}

	report := &models.StageReport{Stage: "landing.persistent"}
	moved := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		spec, ok := specForFileName(entry.Name())
		if !ok {
			diag := fmt.Sprintf("file name format unrecognized: %s", entry.Name())
			logging.Warn().Str("file", entry.Name()).Msg("skipping file with unrecognized name")
			metrics.SnapshotsSkipped.WithLabelValues(report.Stage).Inc()
			report.Skipped = append(report.Skipped, diag)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		snapshotDate := info.ModTime().Format("02012006")

		targetDir := filepath.Join(persistentDir, spec.FilePrefix+"_source")
		if err := os.MkdirAll(targetDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", targetDir, err)
		}

		src := filepath.Join(temporalDir, entry.Name())
		dst := filepath.Join(targetDir, fmt.Sprintf("%s_%s.json", spec.FilePrefix, snapshotDate))
		if err := os.Rename(src, dst); err != nil {
			return nil, fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
		}
		logging.Debug().Str("from", src).Str("to", dst).Msg("moved file to persistent landing")
		moved++
	}

	report.Message = fmt.Sprintf("moved %d file(s) to the persistent landing zone", moved)
	return report, nil
}

// specForFileName matches a file name against the known source prefixes.
func specForFileName(name string) (models.SourceSpec, bool) {
	lower := strings.ToLower(name)
	for _, spec := range models.Sources() {
		if strings.Contains(lower, spec.FilePrefix) {
			return spec, true
		}
	}
	return models.SourceSpec{}, false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("file", src).Msg("failed to close source file")
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}
