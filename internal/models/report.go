// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package models

// StageReport is the result of one manually triggered pipeline stage. Every
// stage returns exactly one report; the operator sees its message and row
// counts as a single status line.
type StageReport struct {
	// Stage is the stage identifier, e.g. "trusted.dedupe".
	Stage string `json:"stage"`

	// Message is a human-readable status summary.
	Message string `json:"message"`

	// Rows maps a source to its row count after the stage ran. Absent for
	// stages that do not touch the trusted store.
	Rows map[Source]int64 `json:"rows,omitempty"`

	// Skipped lists per-item diagnostics for inputs that were skipped
	// (unrecognized file names, mismatched snapshot schemas). Skips are
	// not errors; the remaining inputs are still processed.
	Skipped []string `json:"skipped,omitempty"`
}
