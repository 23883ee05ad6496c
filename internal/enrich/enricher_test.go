package enrich_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lbxwatch/internal/enrich"
	"lbxwatch/internal/enrich/tmdb"
	"lbxwatch/internal/store"
	"lbxwatch/internal/testsupport"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

type fakeMetadata struct {
	movieResults map[string][]tmdb.Result
	tvResults    map[string][]tmdb.Result
	details      map[int64]*tmdb.Details
	searchErr    error
}

func (f *fakeMetadata) SearchMovie(_ context.Context, query string, _ int) (*tmdb.Response, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.movieResults[query]}, nil
}

func (f *fakeMetadata) SearchTV(_ context.Context, query string, _ int) (*tmdb.Response, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.tvResults[query]}, nil
}

func (f *fakeMetadata) Details(_ context.Context, _ tmdb.Media, id int64) (*tmdb.Details, error) {
	details, ok := f.details[id]
	if !ok {
		return nil, errors.New("no details fixture")
	}
	return details, nil
}

type fakeBoxOffice struct {
	gross map[string]int64
	err   error
	calls int
}

func (f *fakeBoxOffice) BoxOffice(_ context.Context, imdbID string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.gross[imdbID], nil
}

func heatDetails() *tmdb.Details {
	return &tmdb.Details{
		ID:            949,
		Title:         "Heat",
		OriginalTitle: "Heat",
		ReleaseDate:   "1995-12-15",
		Runtime:       170,
		Genres:        []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 80, Name: "Crime"}},
		ProductionCountries: []tmdb.Country{
			{ISO3166: "US", Name: "United States of America"},
		},
		SpokenLanguages: []tmdb.Language{{ISO639: "en", Name: "English"}},
		PosterPath:      "/heat.jpg",
		VoteAverage:     8.0,
		VoteCount:       7000,
		ExternalIDs:     tmdb.ExternalIDs{IMDBID: "tt0113277"},
		Credits: tmdb.Credits{
			Crew: []tmdb.CrewMember{
				{ID: 1, Name: "Michael Mann", Job: "Director"},
				{ID: 2, Name: "Dante Spinotti", Job: "Director of Photography"},
			},
			Cast: []tmdb.CastMember{
				{ID: 3, Name: "Al Pacino", Character: "Vincent Hanna"},
				{ID: 4, Name: "Robert De Niro", Character: "Neil McCauley"},
			},
		},
	}
}

func seedMapping(t *testing.T, st *store.Store, mapping store.Mapping) {
	t.Helper()

	if mapping.LastCheckedAt.IsZero() {
		mapping.LastCheckedAt = now
	}
	if err := st.UpsertMapping(context.Background(), mapping); err != nil {
		t.Fatalf("UpsertMapping: %v", err)
	}
}

func TestRunEnrichesAndBackfills(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		MatchedTitle: "Heat", MatchedYear: 1995, MatchedType: "MOVIE",
	})

	metadata := &fakeMetadata{
		movieResults: map[string][]tmdb.Result{"Heat": {{ID: 949, Title: "Heat"}}},
		details:      map[int64]*tmdb.Details{949: heatDetails()},
	}
	boxOffice := &fakeBoxOffice{gross: map[string]int64{"tt0113277": 187436818}}

	enricher, err := enrich.New(cfg, st, metadata, boxOffice, nil,
		enrich.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Targets != 1 || summary.Enriched != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	ctx := context.Background()
	mapping, err := st.GetMapping(ctx, store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if mapping == nil || mapping.FilmID == 0 {
		t.Fatalf("expected film_id backfilled, got %#v", mapping)
	}

	film, err := st.GetFilmDetails(ctx, mapping.FilmID)
	if err != nil {
		t.Fatalf("GetFilmDetails: %v", err)
	}
	if film == nil || film.Title != "Heat" || film.Type != "MOVIE" {
		t.Fatalf("unexpected film details: %#v", film)
	}
	if film.IMDBID != "tt0113277" || film.TMDBID != 949 || film.JWEntryID != "tm1" {
		t.Fatalf("unexpected identifiers: %#v", film)
	}
	if film.BoxOfficeUSD != 187436818 {
		t.Fatalf("expected box office recorded, got %d", film.BoxOfficeUSD)
	}
	if film.RuntimeMin != 170 || film.Year != 1995 {
		t.Fatalf("unexpected derived fields: %#v", film)
	}
	if !strings.Contains(film.DirectorsJSON, "Michael Mann") ||
		strings.Contains(film.DirectorsJSON, "Spinotti") {
		t.Fatalf("director filter wrong: %s", film.DirectorsJSON)
	}
	if !strings.Contains(film.GenresJSON, "Action") || !strings.Contains(film.CastJSON, "Al Pacino") {
		t.Fatalf("unexpected json payloads: genres=%s cast=%s", film.GenresJSON, film.CastJSON)
	}
}

func TestRunWithoutBoxOfficeSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		MatchedTitle: "Heat", MatchedYear: 1995, MatchedType: "MOVIE",
	})

	metadata := &fakeMetadata{
		movieResults: map[string][]tmdb.Result{"Heat": {{ID: 949, Title: "Heat"}}},
		details:      map[int64]*tmdb.Details{949: heatDetails()},
	}
	enricher, err := enrich.New(cfg, st, metadata, nil, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Enriched != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	mapping, err := st.GetMapping(context.Background(), store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	film, err := st.GetFilmDetails(context.Background(), mapping.FilmID)
	if err != nil {
		t.Fatalf("GetFilmDetails: %v", err)
	}
	if film.BoxOfficeUSD != 0 {
		t.Fatalf("expected zero box office without a source, got %d", film.BoxOfficeUSD)
	}
}

func TestRunShowUsesTVSearch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "ts1",
		MatchedTitle: "Breaking Bad", MatchedYear: 2008, MatchedType: "SHOW",
	})

	metadata := &fakeMetadata{
		tvResults: map[string][]tmdb.Result{"Breaking Bad": {{ID: 1396, Name: "Breaking Bad"}}},
		details: map[int64]*tmdb.Details{1396: {
			ID: 1396, Name: "Breaking Bad", OriginalName: "Breaking Bad",
			FirstAirDate: "2008-01-20", EpisodeRunTime: []int{47},
			Credits: tmdb.Credits{Crew: []tmdb.CrewMember{
				{ID: 9, Name: "Michelle MacLaren", Job: "Series Director"},
			}},
		}},
	}
	enricher, err := enrich.New(cfg, st, metadata, nil, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Enriched != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	mapping, err := st.GetMapping(context.Background(), store.SourceWatchlist, 1)
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	film, err := st.GetFilmDetails(context.Background(), mapping.FilmID)
	if err != nil {
		t.Fatalf("GetFilmDetails: %v", err)
	}
	if film.Type != "SHOW" || film.Year != 2008 || film.RuntimeMin != 47 {
		t.Fatalf("unexpected show details: %#v", film)
	}
	if !strings.Contains(film.DirectorsJSON, "MacLaren") {
		t.Fatalf("compound TV director job should match: %s", film.DirectorsJSON)
	}
}

func TestRunNoMatchLeavesTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		MatchedTitle: "Obscure Short", MatchedType: "MOVIE",
	})

	enricher, err := enrich.New(cfg, st, &fakeMetadata{}, nil, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.NoMatch != 1 || summary.Enriched != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	targets, err := st.EnrichTargets(context.Background(), 10)
	if err != nil {
		t.Fatalf("EnrichTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("unmatched target should stay pending, got %#v", targets)
	}
}

func TestRunBoxOfficeFailureIsNotFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		MatchedTitle: "Heat", MatchedYear: 1995, MatchedType: "MOVIE",
	})

	metadata := &fakeMetadata{
		movieResults: map[string][]tmdb.Result{"Heat": {{ID: 949, Title: "Heat"}}},
		details:      map[int64]*tmdb.Details{949: heatDetails()},
	}
	boxOffice := &fakeBoxOffice{err: errors.New("omdb returned 401")}
	enricher, err := enrich.New(cfg, st, metadata, boxOffice, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Enriched != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if boxOffice.calls != 1 {
		t.Fatalf("expected one box office call, got %d", boxOffice.calls)
	}
}

func TestRunSearchFailureCountsFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedMapping(t, st, store.Mapping{
		Source: store.SourceWatchlist, SourceRowID: 1, EntryID: "tm1",
		MatchedTitle: "Heat", MatchedYear: 1995, MatchedType: "MOVIE",
	})

	metadata := &fakeMetadata{searchErr: errors.New("tmdb returned 500")}
	enricher, err := enrich.New(cfg, st, metadata, nil, nil)
	if err != nil {
		t.Fatalf("enrich.New: %v", err)
	}

	summary, err := enricher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should survive row failures: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
