package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertSourceRows inserts or refreshes exported log rows for one source.
func (s *Store) UpsertSourceRows(ctx context.Context, rows []SourceRow, now time.Time) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin source rows tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := formatTime(now)
	count := 0
	for _, row := range rows {
		if row.Title == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO source_rows (source, row_id, title, year, logged_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(source, row_id) DO UPDATE SET
               title = excluded.title,
               year = excluded.year`,
			row.Source, row.RowID, row.Title, nullableInt(row.Year), timestamp,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert source row %s:%d: %w", row.Source, row.RowID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit source rows: %w", err)
	}
	return count, nil
}

// SelectCandidates returns up to limit source rows that have no mapping yet
// or whose mapping was last checked before staleBefore, ordered by row id.
func (s *Store) SelectCandidates(ctx context.Context, source string, staleBefore time.Time, limit int) ([]SourceRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.source, s.row_id, s.title, s.year
         FROM source_rows s
         LEFT JOIN title_mapping m
           ON m.source = s.source AND m.source_row_id = s.row_id
         WHERE s.source = ?
           AND (m.source_row_id IS NULL OR m.last_checked_at < ?)
         ORDER BY s.row_id
         LIMIT ?`,
		source, formatTime(staleBefore), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	defer rows.Close()

	var result []SourceRow
	for rows.Next() {
		var row SourceRow
		var year sql.NullInt64
		if err := rows.Scan(&row.Source, &row.RowID, &row.Title, &year); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		row.Year = intOrZero(year)
		result = append(result, row)
	}
	return result, rows.Err()
}
