// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/evamartin1240/gigline/internal/logging"
)

// Column describes one column of an in-memory table. Type is a DuckDB type
// name; empty means VARCHAR.
type Column struct {
	Name string
	Type string
}

// Table is a whole trusted-zone table held in memory between a stage's read
// and its write-back. Cells are nil (SQL NULL), string, int64, or float64.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// Header returns the column names in order.
func (t *Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// TableExists reports whether a table is present in the store.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name = ?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// CountRows returns the row count of a table.
func (db *DB) CountRows(ctx context.Context, name string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, quoteIdent(name))
	if err := db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", name, err)
	}
	return count, nil
}

// ReadTable loads an entire table into memory, preserving column order and
// stored row order.
func (db *DB) ReadTable(ctx context.Context, name string) (*Table, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(name))
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("table", name).Msg("failed to close rows")
		}
	}()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %s: %w", name, err)
	}
	table := &Table{Columns: make([]Column, len(colTypes))}
	for i, ct := range colTypes {
		table.Columns[i] = Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	for rows.Next() {
		cells := make([]any, len(table.Columns))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		for i, v := range cells {
			if b, ok := v.([]byte); ok {
				cells[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table %s: %w", name, err)
	}
	return table, nil
}

// ReplaceTable atomically replaces a table with the given in-memory table.
// The rows are loaded into a staging table, and the drop-and-rename swap
// happens in the same transaction, so an interruption can never leave the
// store without the table.
func (db *DB) ReplaceTable(ctx context.Context, name string, table *Table) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(table.Columns) == 0 {
		return fmt.Errorf("refusing to create table %s with no columns", name)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).
					Str("table", name).Msg("transaction rollback failed")
			}
		}
	}()

	staging := name + "_staging"

	defs := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		colType := c.Type
		if colType == "" {
			colType = "VARCHAR"
		}
		defs[i] = quoteIdent(c.Name) + " " + colType
	}
	createStmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s (%s)`,
		quoteIdent(staging), strings.Join(defs, ", "))
	if _, err = tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create staging table %s: %w", staging, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(table.Columns)), ",")
	insertStmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(staging), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", staging, err)
	}
	defer func() {
		if cerr := insertStmt.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close insert statement: %w", cerr)
		}
	}()

	for i, row := range table.Rows {
		if _, err = insertStmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, staging, err)
		}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`,
		quoteIdent(staging), quoteIdent(name))); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", staging, name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replacement of %s: %w", name, err)
	}
	return nil
}
