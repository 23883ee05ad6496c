package updater

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lbxwatch/internal/catalog"
	"lbxwatch/internal/config"
	"lbxwatch/internal/history"
	"lbxwatch/internal/logging"
	"lbxwatch/internal/match"
	"lbxwatch/internal/offers"
	"lbxwatch/internal/services"
	"lbxwatch/internal/store"
)

// Catalog is the slice of the catalog client the updater depends on.
type Catalog interface {
	Search(ctx context.Context, query string) ([]catalog.Candidate, error)
	Offers(ctx context.Context, entryID string, countries []string) (map[string][]catalog.RawOffer, error)
}

// Runner executes one batch pass: select stale or unmapped rows, resolve each
// against the catalog, and reconcile availability history for tracked items.
type Runner struct {
	cfg    *config.Config
	store  *store.Store
	client Catalog
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Runner bound to a store and catalog client.
func New(cfg *config.Config, st *store.Store, client Catalog, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "updater", "new", "config required", nil)
	}
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "updater", "new", "store required", nil)
	}
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "updater", "new", "catalog client required", nil)
	}
	runner := &Runner{
		cfg:    cfg,
		store:  st,
		client: client,
		logger: logging.NewComponentLogger(logger, "updater"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Summary reports what one run did.
type Summary struct {
	Selected   int
	Matched    int
	Unmatched  int
	Skipped    int
	Failed     int
	Reconciled int
}

// Run processes one batch. A file lock under the data directory keeps
// concurrent runs from interleaving history writes. Row-level failures are
// logged and skipped; only configuration problems or context cancellation
// abort the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	lock := flock.New(filepath.Join(r.cfg.Paths.DataDir, "update.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "updater", "lock", "acquire run lock", err)
	}
	if !locked {
		return Summary{}, services.Wrap(services.ErrConfiguration, "updater", "lock", "another update run is active", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	source := r.cfg.Update.Source
	logger := r.logger.With(
		logging.String(logging.FieldRunID, uuid.NewString()),
		logging.String(logging.FieldSource, source),
	)

	started := r.now()
	staleBefore := started.AddDate(0, 0, -r.cfg.Update.StaleDays)
	rows, err := r.store.SelectCandidates(ctx, source, staleBefore, r.cfg.Update.BatchSize)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrPersistence, "updater", "select", "select candidates", err)
	}

	logger.Info("update run started",
		logging.Int("candidates", len(rows)),
		logging.Int("stale_days", r.cfg.Update.StaleDays),
		logging.Bool("track_offers", r.cfg.Update.TrackOffers))

	summary := Summary{Selected: len(rows)}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := r.processRow(ctx, logger, row, &summary); err != nil {
			if services.IsFatal(err) {
				return summary, err
			}
			summary.Failed++
			logger.Error("row failed",
				logging.Int64(logging.FieldRowID, row.RowID),
				logging.String("title", row.Title),
				logging.Error(err))
		}
		if i < len(rows)-1 {
			if err := r.pause(ctx); err != nil {
				return summary, err
			}
		}
	}

	logger.Info("update run finished",
		logging.Int("matched", summary.Matched),
		logging.Int("unmatched", summary.Unmatched),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("reconciled", summary.Reconciled),
		logging.Duration("elapsed", r.now().Sub(started)))
	return summary, nil
}

func (r *Runner) processRow(ctx context.Context, logger *slog.Logger, row store.SourceRow, summary *Summary) error {
	title := strings.TrimSpace(row.Title)
	if title == "" {
		summary.Skipped++
		logger.Warn("row has no title, skipping", logging.Int64(logging.FieldRowID, row.RowID))
		return nil
	}

	candidates, err := r.client.Search(ctx, title)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "updater", "search", title, err)
	}

	now := r.now()
	result := match.Resolve(title, row.Year, candidates)
	if !result.Matched() || result.Candidate.EntryID == "" {
		summary.Unmatched++
		// Only an existing mapping leaves the stale window; a never-matched
		// row stays unmapped and is retried on the next run.
		if _, err := r.store.TouchMapping(ctx, row.Source, row.RowID, now); err != nil {
			return services.Wrap(services.ErrPersistence, "updater", "touch", title, err)
		}
		logger.Warn("no catalog match",
			logging.Int64(logging.FieldRowID, row.RowID),
			logging.String("title", title),
			logging.Int("year", row.Year))
		return nil
	}

	mapping := store.Mapping{
		Source:        row.Source,
		SourceRowID:   row.RowID,
		EntryID:       result.Candidate.EntryID,
		MatchedVia:    string(result.Via),
		Confidence:    result.Confidence,
		MatchedTitle:  result.Candidate.DisplayTitle(),
		MatchedYear:   result.Candidate.Year(),
		MatchedType:   string(result.MatchedType),
		LastCheckedAt: now,
	}
	if err := r.store.UpsertMapping(ctx, mapping); err != nil {
		return services.Wrap(services.ErrPersistence, "updater", "map", title, err)
	}
	summary.Matched++
	logger.Info("mapped",
		logging.Int64(logging.FieldRowID, row.RowID),
		logging.String("title", title),
		logging.String("entry_id", mapping.EntryID),
		logging.Int("confidence", mapping.Confidence),
		logging.String("via", mapping.MatchedVia))

	if !r.cfg.Update.TrackOffers || row.Source != store.SourceWatchlist {
		return nil
	}
	return r.reconcileOffers(ctx, logger, row, mapping.EntryID, now, summary)
}

// reconcileOffers fetches the current offer set for one item and folds it into
// the availability history. A failed lookup leaves history untouched so a
// transient outage is never recorded as every provider dropping the title.
func (r *Runner) reconcileOffers(ctx context.Context, logger *slog.Logger, row store.SourceRow, entryID string, now time.Time, summary *Summary) error {
	country := r.cfg.Catalog.Country
	byCountry, fetchErr := r.client.Offers(ctx, entryID, []string{country})
	raw, ok := byCountry[country]
	if !ok {
		logger.Warn("offer lookup failed, leaving history untouched",
			logging.Int64(logging.FieldRowID, row.RowID),
			logging.String("entry_id", entryID),
			logging.Error(fetchErr))
		return nil
	}

	current := offers.Normalize(raw)
	previous, err := r.store.OpenIntervals(ctx, row.RowID)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "updater", "offers", "load open intervals", err)
	}
	plan := history.Reconcile(history.Input{
		ItemID:   row.RowID,
		EntryID:  entryID,
		Previous: previous,
		Current:  current,
		Now:      now,
	})
	if err := r.store.ApplyPlan(ctx, plan); err != nil {
		return services.Wrap(services.ErrPersistence, "updater", "offers", "apply reconciliation", err)
	}

	logger.Debug("offers reconciled",
		logging.Int64(logging.FieldRowID, row.RowID),
		logging.Int("providers", len(current)),
		logging.Int("closed", len(plan.CloseAndRemove)),
		logging.Int("opened", len(plan.OpenIntervals)))
	summary.Reconciled++
	return nil
}

// pause sleeps the configured inter-item interval, honoring cancellation.
func (r *Runner) pause(ctx context.Context) error {
	sleep := time.Duration(r.cfg.Update.SleepMS) * time.Millisecond
	if sleep <= 0 {
		return nil
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
