package updater_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"lbxwatch/internal/catalog"
	"lbxwatch/internal/config"
	"lbxwatch/internal/history"
	"lbxwatch/internal/offers"
	"lbxwatch/internal/services"
	"lbxwatch/internal/store"
	"lbxwatch/internal/testsupport"
	"lbxwatch/internal/updater"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	country    string
	candidates map[string][]catalog.Candidate
	searchErr  map[string]error
	rawOffers  map[string][]catalog.RawOffer
	offersErr  map[string]error
	offerCalls int
}

func (f *fakeCatalog) Search(_ context.Context, query string) ([]catalog.Candidate, error) {
	if err := f.searchErr[query]; err != nil {
		return nil, err
	}
	return f.candidates[query], nil
}

func (f *fakeCatalog) Offers(_ context.Context, entryID string, _ []string) (map[string][]catalog.RawOffer, error) {
	f.offerCalls++
	if err := f.offersErr[entryID]; err != nil {
		return map[string][]catalog.RawOffer{}, err
	}
	raw, ok := f.rawOffers[entryID]
	if !ok {
		raw = []catalog.RawOffer{}
	}
	return map[string][]catalog.RawOffer{f.country: raw}, nil
}

func candidate(entryID, title string, year int) catalog.Candidate {
	return catalog.Candidate{EntryID: entryID, ObjectType: "MOVIE", Title: title, ReleaseYear: year}
}

func rawOffer(id int64, name, presentation, url string) catalog.RawOffer {
	return catalog.RawOffer{
		"presentationType": presentation,
		"standardWebURL":   url,
		"package":          map[string]any{"packageId": id, "clearName": name},
	}
}

func newRunner(t *testing.T, cfg *config.Config, st *store.Store, client *fakeCatalog) *updater.Runner {
	t.Helper()

	runner, err := updater.New(cfg, st, client, nil, updater.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("updater.New: %v", err)
	}
	return runner
}

func TestRunMapsAndReconcilesOffers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedSourceRows(t, st, store.SourceRow{
		Source: store.SourceWatchlist, RowID: 1, Title: "Heat", Year: 1995,
	})

	client := &fakeCatalog{
		country: cfg.Catalog.Country,
		candidates: map[string][]catalog.Candidate{
			"Heat": {candidate("tm1", "Heat", 1995)},
		},
		rawOffers: map[string][]catalog.RawOffer{
			"tm1": {rawOffer(8, "Netflix", "HD", "https://netflix/heat")},
		},
	}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Selected != 1 || summary.Matched != 1 || summary.Reconciled != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	ctx := context.Background()
	mapping, err := st.GetMapping(ctx, store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping == nil || mapping.EntryID != "tm1" {
		t.Fatalf("expected mapping to tm1, got %#v", mapping)
	}
	if mapping.Confidence != 100 || mapping.MatchedVia != "name_year" {
		t.Fatalf("expected full-confidence name_year match, got %#v", mapping)
	}
	if !mapping.LastCheckedAt.Equal(now) {
		t.Fatalf("expected last_checked_at stamped, got %v", mapping.LastCheckedAt)
	}

	current, err := st.CurrentOffers(ctx, 1)
	if err != nil {
		t.Fatalf("CurrentOffers: %v", err)
	}
	if len(current) != 1 || current[0].ProviderID != 8 || current[0].ProviderName != "Netflix" {
		t.Fatalf("unexpected snapshot: %#v", current)
	}
	open, err := st.OpenIntervals(ctx, 1)
	if err != nil {
		t.Fatalf("OpenIntervals: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open interval, got %#v", open)
	}
}

func TestRunNoMatchKeepsRowEligible(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedSourceRows(t, st, store.SourceRow{
		Source: store.SourceWatchlist, RowID: 1, Title: "Obscure Short", Year: 2003,
	})

	client := &fakeCatalog{country: cfg.Catalog.Country}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Unmatched != 1 || summary.Matched != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	ctx := context.Background()
	mapping, err := st.GetMapping(ctx, store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping != nil {
		t.Fatalf("never-matched row should stay unmapped, got %#v", mapping)
	}

	rows, err := st.SelectCandidates(ctx, store.SourceWatchlist, now.AddDate(0, 0, -7), 10)
	if err != nil {
		t.Fatalf("SelectCandidates: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected row still eligible, got %#v", rows)
	}
}

func TestRunTouchesExistingMappingOnMiss(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedSourceRows(t, st, store.SourceRow{
		Source: store.SourceWatchlist, RowID: 1, Title: "Heat", Year: 1995,
	})
	if err := st.UpsertMapping(ctx, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		Confidence: 100, LastCheckedAt: now.AddDate(0, 0, -30),
	}); err != nil {
		t.Fatalf("UpsertMapping: %v", err)
	}

	// The catalog now returns nothing; the old match must survive but the
	// row must leave the stale window.
	client := &fakeCatalog{country: cfg.Catalog.Country}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Unmatched != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	mapping, err := st.GetMapping(ctx, store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping == nil || mapping.EntryID != "tm1" {
		t.Fatalf("previous match should survive a miss, got %#v", mapping)
	}
	if !mapping.LastCheckedAt.Equal(now) {
		t.Fatalf("expected last_checked_at advanced, got %v", mapping.LastCheckedAt)
	}
}

func TestRunOfferFailureLeavesHistoryUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedSourceRows(t, st, store.SourceRow{
		Source: store.SourceWatchlist, RowID: 1, Title: "Heat", Year: 1995,
	})
	seed := history.Plan{
		ItemID:        1,
		EntryID:       "tm1",
		Now:           now.AddDate(0, 0, -10),
		UpsertCurrent: []offers.Offer{{ProviderID: 8, ProviderName: "Netflix", PresentationType: "HD", URL: "n"}},
		OpenIntervals: []offers.Offer{{ProviderID: 8, ProviderName: "Netflix", PresentationType: "HD", URL: "n"}},
	}
	if err := st.ApplyPlan(ctx, seed); err != nil {
		t.Fatalf("seed ApplyPlan: %v", err)
	}

	client := &fakeCatalog{
		country: cfg.Catalog.Country,
		candidates: map[string][]catalog.Candidate{
			"Heat": {candidate("tm1", "Heat", 1995)},
		},
		offersErr: map[string]error{"tm1": errors.New("catalog returned 502")},
	}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Matched != 1 || summary.Reconciled != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	open, err := st.OpenIntervals(ctx, 1)
	if err != nil {
		t.Fatalf("OpenIntervals: %v", err)
	}
	if len(open) != 1 || open[8].ProviderName != "Netflix" {
		t.Fatalf("a failed lookup must not close intervals, got %#v", open)
	}
}

func TestRunContinuesAfterRowFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTrackOffers(false))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedSourceRows(t, st,
		store.SourceRow{Source: store.SourceWatchlist, RowID: 1, Title: "Broken", Year: 2000},
		store.SourceRow{Source: store.SourceWatchlist, RowID: 2, Title: "Heat", Year: 1995},
	)

	client := &fakeCatalog{
		country:   cfg.Catalog.Country,
		searchErr: map[string]error{"Broken": errors.New("catalog returned 500")},
		candidates: map[string][]catalog.Candidate{
			"Heat": {candidate("tm1", "Heat", 1995)},
		},
	}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should survive row failures: %v", err)
	}
	if summary.Failed != 1 || summary.Matched != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestRunDiarySourceSkipsOfferTracking(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSource(store.SourceDiary))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedSourceRows(t, st, store.SourceRow{
		Source: store.SourceDiary, RowID: 1, Title: "Heat", Year: 1995,
	})

	client := &fakeCatalog{
		country: cfg.Catalog.Country,
		candidates: map[string][]catalog.Candidate{
			"Heat": {candidate("tm1", "Heat", 1995)},
		},
	}
	runner := newRunner(t, cfg, st, client)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Matched != 1 || summary.Reconciled != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if client.offerCalls != 0 {
		t.Fatalf("diary rows must not trigger offer lookups, got %d calls", client.offerCalls)
	}
}

func TestRunRefusesConcurrentInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	held := flock.New(filepath.Join(cfg.Paths.DataDir, "update.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() {
		_ = held.Unlock()
	}()

	runner := newRunner(t, cfg, st, &fakeCatalog{country: cfg.Catalog.Country})
	if _, err := runner.Run(context.Background()); !services.IsFatal(err) {
		t.Fatalf("expected fatal lock error, got %v", err)
	}
}
