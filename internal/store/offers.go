package store

import (
	"context"
	"database/sql"
	"fmt"

	"lbxwatch/internal/history"
)

// OpenIntervals returns, for one item, every provider with an open history
// interval mapped to that interval's recorded fields. This is both the
// previous-active set and the change-detection fingerprint for reconciliation.
func (s *Store) OpenIntervals(ctx context.Context, itemID int64) (map[int64]history.OpenInterval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider_id, provider_name, presentation_type, url
         FROM offers_history
         WHERE item_id = ? AND valid_to IS NULL`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("select open intervals: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]history.OpenInterval)
	for rows.Next() {
		var (
			providerID   int64
			name         string
			presentation sql.NullString
			url          sql.NullString
		)
		if err := rows.Scan(&providerID, &name, &presentation, &url); err != nil {
			return nil, fmt.Errorf("scan open interval: %w", err)
		}
		result[providerID] = history.OpenInterval{
			ProviderName:     name,
			PresentationType: stringOrEmpty(presentation),
			URL:              stringOrEmpty(url),
		}
	}
	return result, rows.Err()
}

// ApplyPlan applies one reconciliation plan in a single transaction:
// disappeared providers are closed and removed from the snapshot, new or
// changed providers get a fresh interval (closing any previous open one
// first), and every current offer refreshes its snapshot row. Atomicity
// preserves the at-most-one-open-interval invariant under crash-mid-run.
func (s *Store) ApplyPlan(ctx context.Context, plan history.Plan) error {
	if plan.Empty() {
		return nil
	}
	timestamp := formatTime(plan.Now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, providerID := range plan.CloseAndRemove {
		if _, err := tx.ExecContext(ctx,
			`UPDATE offers_history SET valid_to = ?
             WHERE item_id = ? AND provider_id = ? AND valid_to IS NULL`,
			timestamp, plan.ItemID, providerID,
		); err != nil {
			return fmt.Errorf("close interval %d/%d: %w", plan.ItemID, providerID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM offers_current WHERE item_id = ? AND provider_id = ?`,
			plan.ItemID, providerID,
		); err != nil {
			return fmt.Errorf("remove snapshot %d/%d: %w", plan.ItemID, providerID, err)
		}
	}

	for _, offer := range plan.OpenIntervals {
		if _, err := tx.ExecContext(ctx,
			`UPDATE offers_history SET valid_to = ?
             WHERE item_id = ? AND provider_id = ? AND valid_to IS NULL`,
			timestamp, plan.ItemID, offer.ProviderID,
		); err != nil {
			return fmt.Errorf("close changed interval %d/%d: %w", plan.ItemID, offer.ProviderID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offers_history
               (item_id, entry_id, provider_id, provider_name, presentation_type, url, valid_from, valid_to)
             VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
			plan.ItemID, plan.EntryID, offer.ProviderID, offer.ProviderName,
			nullableString(offer.PresentationType), nullableString(offer.URL), timestamp,
		); err != nil {
			return fmt.Errorf("open interval %d/%d: %w", plan.ItemID, offer.ProviderID, err)
		}
	}

	for _, offer := range plan.UpsertCurrent {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offers_current
               (item_id, entry_id, provider_id, provider_name, presentation_type, url, last_seen_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(item_id, provider_id) DO UPDATE SET
               entry_id          = excluded.entry_id,
               provider_name     = excluded.provider_name,
               presentation_type = excluded.presentation_type,
               url               = excluded.url,
               last_seen_at      = excluded.last_seen_at`,
			plan.ItemID, plan.EntryID, offer.ProviderID, offer.ProviderName,
			nullableString(offer.PresentationType), nullableString(offer.URL), timestamp,
		); err != nil {
			return fmt.Errorf("upsert snapshot %d/%d: %w", plan.ItemID, offer.ProviderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// CurrentOffers returns the snapshot rows for one item ordered by provider.
func (s *Store) CurrentOffers(ctx context.Context, itemID int64) ([]CurrentOffer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, entry_id, provider_id, provider_name, presentation_type, url, last_seen_at
         FROM offers_current WHERE item_id = ? ORDER BY provider_id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("select current offers: %w", err)
	}
	defer rows.Close()

	var result []CurrentOffer
	for rows.Next() {
		var (
			offer        CurrentOffer
			presentation sql.NullString
			url          sql.NullString
			lastSeen     string
		)
		if err := rows.Scan(&offer.ItemID, &offer.EntryID, &offer.ProviderID,
			&offer.ProviderName, &presentation, &url, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan current offer: %w", err)
		}
		offer.PresentationType = stringOrEmpty(presentation)
		offer.URL = stringOrEmpty(url)
		offer.LastSeenAt = parseTime(lastSeen)
		result = append(result, offer)
	}
	return result, rows.Err()
}

// HistoryRows returns the full availability history for one item, oldest
// first, open intervals last within each provider.
func (s *Store) HistoryRows(ctx context.Context, itemID int64) ([]HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, entry_id, provider_id, provider_name, presentation_type, url, valid_from, valid_to
         FROM offers_history WHERE item_id = ? ORDER BY provider_id, valid_from`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	var result []HistoryRow
	for rows.Next() {
		var (
			row          HistoryRow
			presentation sql.NullString
			url          sql.NullString
			validFrom    string
			validTo      sql.NullString
		)
		if err := rows.Scan(&row.ItemID, &row.EntryID, &row.ProviderID, &row.ProviderName,
			&presentation, &url, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		row.PresentationType = stringOrEmpty(presentation)
		row.URL = stringOrEmpty(url)
		row.ValidFrom = parseTime(validFrom)
		if validTo.Valid {
			t := parseTime(validTo.String)
			row.ValidTo = &t
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DuplicateOpenIntervals counts (item, provider) pairs violating the
// at-most-one-open-interval invariant. Zero on a healthy database.
func (s *Store) DuplicateOpenIntervals(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM (
           SELECT item_id, provider_id FROM offers_history
           WHERE valid_to IS NULL
           GROUP BY item_id, provider_id
           HAVING COUNT(1) > 1
         )`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count duplicate open intervals: %w", err)
	}
	return count, nil
}
