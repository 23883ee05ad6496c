package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const mappingColumns = `source, source_row_id, entry_id, matched_via, confidence,
    matched_title, matched_year, matched_type, film_id, last_checked_at`

// UpsertMapping inserts or refreshes the mapping for one source row. The same
// key is never duplicated; repeated runs overwrite the previous resolution
// and advance last_checked_at even when no match was found.
func (s *Store) UpsertMapping(ctx context.Context, m Mapping) error {
	if m.Source == "" || m.SourceRowID == 0 {
		return errors.New("mapping requires source and source row id")
	}
	if m.LastCheckedAt.IsZero() {
		m.LastCheckedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO title_mapping
           (source, source_row_id, entry_id, matched_via, confidence,
            matched_title, matched_year, matched_type, last_checked_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(source, source_row_id) DO UPDATE SET
           entry_id        = excluded.entry_id,
           matched_via     = excluded.matched_via,
           confidence      = excluded.confidence,
           matched_title   = excluded.matched_title,
           matched_year    = excluded.matched_year,
           matched_type    = excluded.matched_type,
           last_checked_at = excluded.last_checked_at`,
		m.Source,
		m.SourceRowID,
		nullableString(m.EntryID),
		nullableString(m.MatchedVia),
		m.Confidence,
		nullableString(m.MatchedTitle),
		nullableInt(m.MatchedYear),
		nullableString(m.MatchedType),
		formatTime(m.LastCheckedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert mapping %s:%d: %w", m.Source, m.SourceRowID, err)
	}
	return nil
}

// TouchMapping advances last_checked_at on an existing mapping without
// altering the resolution. Used when a re-resolution attempt finds nothing:
// the old match survives but the row leaves the stale window. Reports whether
// a mapping existed.
func (s *Store) TouchMapping(ctx context.Context, source string, rowID int64, checkedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE title_mapping SET last_checked_at = ? WHERE source = ? AND source_row_id = ?`,
		formatTime(checkedAt), source, rowID,
	)
	if err != nil {
		return false, fmt.Errorf("touch mapping %s:%d: %w", source, rowID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch mapping rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetMapping fetches one mapping by key, or nil when absent.
func (s *Store) GetMapping(ctx context.Context, source string, rowID int64) (*Mapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM title_mapping WHERE source = ? AND source_row_id = ?`,
		source, rowID,
	)
	mapping, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return mapping, nil
}

// ListMappings returns mappings for a source ordered by row id.
func (s *Store) ListMappings(ctx context.Context, source string, limit int) ([]*Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM title_mapping WHERE source = ? ORDER BY source_row_id LIMIT ?`,
		source, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var result []*Mapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, mapping)
	}
	return result, rows.Err()
}

// EnrichTargets returns resolved mappings that have no film details yet.
func (s *Store) EnrichTargets(ctx context.Context, limit int) ([]*Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM title_mapping
         WHERE film_id IS NULL AND entry_id IS NOT NULL
         ORDER BY source, source_row_id
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select enrich targets: %w", err)
	}
	defer rows.Close()

	var result []*Mapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, mapping)
	}
	return result, rows.Err()
}

// SetMappingFilmID backfills the film details reference on a mapping.
func (s *Store) SetMappingFilmID(ctx context.Context, source string, rowID, filmID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE title_mapping SET film_id = ? WHERE source = ? AND source_row_id = ?`,
		filmID, source, rowID,
	)
	if err != nil {
		return fmt.Errorf("set film id %s:%d: %w", source, rowID, err)
	}
	return nil
}

// Summary aggregates mapping state for one source.
func (s *Store) Summary(ctx context.Context, source string, staleBefore time.Time) (MappingSummary, error) {
	var summary MappingSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT
           (SELECT COUNT(1) FROM source_rows WHERE source = ?),
           (SELECT COUNT(1) FROM title_mapping WHERE source = ? AND entry_id IS NOT NULL),
           (SELECT COUNT(1) FROM title_mapping WHERE source = ? AND entry_id IS NULL),
           (SELECT COUNT(1) FROM title_mapping WHERE source = ? AND last_checked_at < ?),
           (SELECT COUNT(1) FROM title_mapping WHERE source = ? AND film_id IS NOT NULL)`,
		source, source, source, source, formatTime(staleBefore), source,
	).Scan(&summary.SourceRows, &summary.Mapped, &summary.Unmatched, &summary.Stale, &summary.Enriched)
	if err != nil {
		return MappingSummary{}, fmt.Errorf("summarize mappings: %w", err)
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(scanner rowScanner) (*Mapping, error) {
	var (
		m           Mapping
		entryID     sql.NullString
		matchedVia  sql.NullString
		confidence  sql.NullInt64
		title       sql.NullString
		year        sql.NullInt64
		matchedType sql.NullString
		filmID      sql.NullInt64
		checkedAt   string
	)
	err := scanner.Scan(&m.Source, &m.SourceRowID, &entryID, &matchedVia, &confidence,
		&title, &year, &matchedType, &filmID, &checkedAt)
	if err != nil {
		return nil, err
	}
	m.EntryID = stringOrEmpty(entryID)
	m.MatchedVia = stringOrEmpty(matchedVia)
	m.Confidence = intOrZero(confidence)
	m.MatchedTitle = stringOrEmpty(title)
	m.MatchedYear = intOrZero(year)
	m.MatchedType = stringOrEmpty(matchedType)
	m.FilmID = int64OrZero(filmID)
	m.LastCheckedAt = parseTime(checkedAt)
	return &m, nil
}
