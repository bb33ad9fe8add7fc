package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tsawler/finsight/model"
)

// SaveTables stores extracted tables inside one transaction, replacing
// tables with the same ID. Table IDs are deterministic, so re-extracting a
// document overwrites its previous tables in place.
func (s *Store) SaveTables(ctx context.Context, tables []model.ExtractedTable) error {
	if len(tables) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO extracted_tables
			(table_id, document_id, page, index_on_page, name, unit, periods, grid,
			 context_above, context_below, confidence, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(table_id) DO UPDATE SET
			document_id = excluded.document_id,
			page = excluded.page,
			index_on_page = excluded.index_on_page,
			name = excluded.name,
			unit = excluded.unit,
			periods = excluded.periods,
			grid = excluded.grid,
			context_above = excluded.context_above,
			context_below = excluded.context_below,
			confidence = excluded.confidence,
			method = excluded.method
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, tab := range tables {
		grid, err := json.Marshal(tab.Grid)
		if err != nil {
			return fmt.Errorf("marshalling grid for %s: %w", tab.TableID, err)
		}
		periods, err := marshalStrings(tab.Periods)
		if err != nil {
			return err
		}
		above, err := marshalStrings(tab.ContextAbove)
		if err != nil {
			return err
		}
		below, err := marshalStrings(tab.ContextBelow)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, tab.TableID, tab.DocumentID, tab.Page, tab.IndexOnPage,
			string(tab.Name), tab.Unit, periods, string(grid), above, below,
			tab.Confidence, string(tab.Method)); err != nil {
			return fmt.Errorf("saving table %s: %w", tab.TableID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetTable retrieves one extracted table by ID.
func (s *Store) GetTable(ctx context.Context, tableID string) (*model.ExtractedTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_id, document_id, page, index_on_page, name, unit, periods, grid,
		       context_above, context_below, confidence, method
		FROM extracted_tables WHERE table_id = ?
	`, tableID)
	if err != nil {
		return nil, fmt.Errorf("querying table: %w", err)
	}
	defer rows.Close()

	tables, err := collectTables(rows)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrNotFound
	}
	return &tables[0], nil
}

// TablesByDocument returns a document's tables in page order.
func (s *Store) TablesByDocument(ctx context.Context, documentID string) ([]model.ExtractedTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_id, document_id, page, index_on_page, name, unit, periods, grid,
		       context_above, context_below, confidence, method
		FROM extracted_tables WHERE document_id = ? ORDER BY page, index_on_page
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	return collectTables(rows)
}

// AllTables returns every stored table, for building query-time lookups.
func (s *Store) AllTables(ctx context.Context) ([]model.ExtractedTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_id, document_id, page, index_on_page, name, unit, periods, grid,
		       context_above, context_below, confidence, method
		FROM extracted_tables ORDER BY document_id, page, index_on_page
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	return collectTables(rows)
}

func collectTables(rows *sql.Rows) ([]model.ExtractedTable, error) {
	var tables []model.ExtractedTable
	for rows.Next() {
		var tab model.ExtractedTable
		var name, method, periods, grid, above, below string
		if err := rows.Scan(&tab.TableID, &tab.DocumentID, &tab.Page, &tab.IndexOnPage,
			&name, &tab.Unit, &periods, &grid, &above, &below,
			&tab.Confidence, &method); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}

		tab.Name = model.TableType(name)
		tab.Method = model.ExtractionMethod(method)

		if err := json.Unmarshal([]byte(grid), &tab.Grid); err != nil {
			return nil, fmt.Errorf("unmarshalling grid for %s: %w", tab.TableID, err)
		}

		var err error
		if tab.Periods, err = unmarshalStrings(periods); err != nil {
			return nil, err
		}
		if tab.ContextAbove, err = unmarshalStrings(above); err != nil {
			return nil, err
		}
		if tab.ContextBelow, err = unmarshalStrings(below); err != nil {
			return nil, err
		}

		tables = append(tables, tab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// SaveRows stores normalized table rows inside one transaction.
func (s *Store) SaveRows(ctx context.Context, tableRows []model.NormalizedRow) error {
	if len(tableRows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO table_rows
			(id, table_id, row_label, column_label, period, raw_value, value,
			 row_index, col_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			table_id = excluded.table_id,
			row_label = excluded.row_label,
			column_label = excluded.column_label,
			period = excluded.period,
			raw_value = excluded.raw_value,
			value = excluded.value,
			row_index = excluded.row_index,
			col_index = excluded.col_index,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range tableRows {
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.TableID, r.RowLabel, r.ColumnLabel,
			r.Period, r.RawValue, value, r.RowIndex, r.ColIndex,
			float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("saving row %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RowsByTable returns a table's normalized rows in grid order.
func (s *Store) RowsByTable(ctx context.Context, tableID string) ([]model.NormalizedRow, error) {
	return s.queryRows(ctx, `
		SELECT id, table_id, row_label, column_label, period, raw_value, value,
		       row_index, col_index, embedding
		FROM table_rows WHERE table_id = ? ORDER BY row_index, col_index
	`, tableID)
}

// AllRows returns every stored normalized row, for rebuilding the financial
// similarity index.
func (s *Store) AllRows(ctx context.Context) ([]model.NormalizedRow, error) {
	return s.queryRows(ctx, `
		SELECT id, table_id, row_label, column_label, period, raw_value, value,
		       row_index, col_index, embedding
		FROM table_rows ORDER BY table_id, row_index, col_index
	`)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]model.NormalizedRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying table rows: %w", err)
	}
	defer rows.Close()

	var result []model.NormalizedRow
	for rows.Next() {
		var r model.NormalizedRow
		var value sql.NullFloat64
		var embedding []byte
		if err := rows.Scan(&r.ID, &r.TableID, &r.RowLabel, &r.ColumnLabel,
			&r.Period, &r.RawValue, &value, &r.RowIndex, &r.ColIndex, &embedding); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		r.Embedding = bytesToFloat32Slice(embedding)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}
	return result, nil
}
