package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"lbxwatch/internal/config"
	"lbxwatch/internal/enrich/tmdb"
	"lbxwatch/internal/logging"
	"lbxwatch/internal/services"
	"lbxwatch/internal/store"
)

// MetadataSource is the slice of the TMDb client the enricher depends on.
type MetadataSource interface {
	SearchMovie(ctx context.Context, query string, year int) (*tmdb.Response, error)
	SearchTV(ctx context.Context, query string, year int) (*tmdb.Response, error)
	Details(ctx context.Context, media tmdb.Media, id int64) (*tmdb.Details, error)
}

// BoxOfficeSource resolves a US box-office gross by IMDb id.
type BoxOfficeSource interface {
	BoxOffice(ctx context.Context, imdbID string) (int64, error)
}

// Enricher fills film_details for resolved mappings that have none yet:
// TMDb search by matched title and year, detail bundle fetch, optional OMDb
// box office, then a film_id backfill on the mapping.
type Enricher struct {
	cfg       *config.Config
	store     *store.Store
	metadata  MetadataSource
	boxOffice BoxOfficeSource
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Enricher. boxOffice may be nil when no OMDb key is
// configured; box-office figures are then left at zero.
func New(cfg *config.Config, st *store.Store, metadata MetadataSource, boxOffice BoxOfficeSource, logger *slog.Logger, opts ...Option) (*Enricher, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrich", "new", "config required", nil)
	}
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrich", "new", "store required", nil)
	}
	if metadata == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrich", "new", "tmdb client required", nil)
	}
	enricher := &Enricher{
		cfg:       cfg,
		store:     st,
		metadata:  metadata,
		boxOffice: boxOffice,
		logger:    logging.NewComponentLogger(logger, "enrich"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(enricher)
	}
	return enricher, nil
}

// Summary reports what one enrichment run did.
type Summary struct {
	Targets  int
	Enriched int
	NoMatch  int
	Skipped  int
	Failed   int
}

// Run enriches one batch of mappings. Row-level failures are logged and
// skipped, matching the updater's discipline.
func (e *Enricher) Run(ctx context.Context) (Summary, error) {
	targets, err := e.store.EnrichTargets(ctx, e.cfg.Enrich.BatchSize)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrPersistence, "enrich", "select", "select targets", err)
	}

	e.logger.Info("enrichment run started", logging.Int("targets", len(targets)))

	summary := Summary{Targets: len(targets)}
	for i, mapping := range targets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := e.enrichOne(ctx, mapping, &summary); err != nil {
			if services.IsFatal(err) {
				return summary, err
			}
			summary.Failed++
			e.logger.Error("enrichment failed",
				logging.String(logging.FieldSource, mapping.Source),
				logging.Int64(logging.FieldRowID, mapping.SourceRowID),
				logging.String("title", mapping.MatchedTitle),
				logging.Error(err))
		}
		if i < len(targets)-1 {
			if err := e.pause(ctx); err != nil {
				return summary, err
			}
		}
	}

	e.logger.Info("enrichment run finished",
		logging.Int("enriched", summary.Enriched),
		logging.Int("no_match", summary.NoMatch),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (e *Enricher) enrichOne(ctx context.Context, mapping *store.Mapping, summary *Summary) error {
	title := strings.TrimSpace(mapping.MatchedTitle)
	if title == "" {
		summary.Skipped++
		e.logger.Warn("mapping has no matched title, skipping",
			logging.String(logging.FieldSource, mapping.Source),
			logging.Int64(logging.FieldRowID, mapping.SourceRowID))
		return nil
	}

	media := mediaOf(mapping.MatchedType)
	tmdbID, err := e.findTMDBID(ctx, media, title, mapping.MatchedYear)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "enrich", "search", title, err)
	}
	if tmdbID == 0 {
		summary.NoMatch++
		e.logger.Warn("no tmdb match",
			logging.String("title", title),
			logging.Int("year", mapping.MatchedYear),
			logging.String("media", string(media)))
		return nil
	}

	details, err := e.metadata.Details(ctx, media, tmdbID)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "enrich", "details", title, err)
	}

	film, err := buildFilmDetails(media, tmdbID, mapping.EntryID, details)
	if err != nil {
		return services.Wrap(services.ErrValidation, "enrich", "encode", title, err)
	}
	film.BoxOfficeUSD = e.lookupBoxOffice(ctx, details.ExternalIDs.IMDBID)

	filmID, err := e.store.UpsertFilmDetails(ctx, film)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "enrich", "upsert", title, err)
	}
	if err := e.store.SetMappingFilmID(ctx, mapping.Source, mapping.SourceRowID, filmID); err != nil {
		return services.Wrap(services.ErrPersistence, "enrich", "backfill", title, err)
	}

	summary.Enriched++
	e.logger.Info("enriched",
		logging.String(logging.FieldSource, mapping.Source),
		logging.Int64(logging.FieldRowID, mapping.SourceRowID),
		logging.Int64("film_id", filmID),
		logging.String("title", film.Title))
	return nil
}

func (e *Enricher) findTMDBID(ctx context.Context, media tmdb.Media, title string, year int) (int64, error) {
	var (
		resp *tmdb.Response
		err  error
	)
	if media == tmdb.MediaTV {
		resp, err = e.metadata.SearchTV(ctx, title, year)
	} else {
		resp, err = e.metadata.SearchMovie(ctx, title, year)
	}
	if err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, nil
	}
	return resp.Results[0].ID, nil
}

// lookupBoxOffice is best-effort: a missing client, missing IMDb id, or a
// failed lookup all yield zero rather than failing the row.
func (e *Enricher) lookupBoxOffice(ctx context.Context, imdbID string) int64 {
	if e.boxOffice == nil || strings.TrimSpace(imdbID) == "" {
		return 0
	}
	gross, err := e.boxOffice.BoxOffice(ctx, imdbID)
	if err != nil {
		e.logger.Debug("box office lookup failed",
			logging.String("imdb_id", imdbID),
			logging.Error(err))
		return 0
	}
	return gross
}

func (e *Enricher) pause(ctx context.Context) error {
	sleep := time.Duration(e.cfg.Enrich.SleepMS) * time.Millisecond
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

func mediaOf(matchedType string) tmdb.Media {
	if strings.EqualFold(strings.TrimSpace(matchedType), "SHOW") {
		return tmdb.MediaTV
	}
	return tmdb.MediaMovie
}

type person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type castCredit struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

func buildFilmDetails(media tmdb.Media, tmdbID int64, entryID string, details *tmdb.Details) (store.FilmDetails, error) {
	filmType := "MOVIE"
	if media == tmdb.MediaTV {
		filmType = "SHOW"
	}

	genres := make([]string, 0, len(details.Genres))
	for _, genre := range details.Genres {
		genres = append(genres, genre.Name)
	}
	countries := make([]string, 0, len(details.ProductionCountries))
	for _, country := range details.ProductionCountries {
		countries = append(countries, country.ISO3166)
	}
	languages := make([]string, 0, len(details.SpokenLanguages))
	for _, language := range details.SpokenLanguages {
		languages = append(languages, language.ISO639)
	}

	directors := make([]person, 0, 2)
	for _, crew := range details.Credits.Crew {
		if isDirector(media, crew.Job) {
			directors = append(directors, person{ID: crew.ID, Name: crew.Name})
		}
	}

	// Top-billed cast only; full credit lists balloon the row for no benefit.
	cast := make([]castCredit, 0, 10)
	for _, member := range details.Credits.Cast {
		if len(cast) == 10 {
			break
		}
		cast = append(cast, castCredit{ID: member.ID, Name: member.Name, Character: member.Character})
	}

	encoded := map[string]any{
		"genres": genres, "countries": countries, "languages": languages,
		"directors": directors, "cast": cast,
	}
	marshaled := make(map[string]string, len(encoded))
	for key, value := range encoded {
		data, err := json.Marshal(value)
		if err != nil {
			return store.FilmDetails{}, err
		}
		marshaled[key] = string(data)
	}

	return store.FilmDetails{
		Type:          filmType,
		Title:         details.DisplayTitle(),
		OriginalTitle: details.OriginalDisplayTitle(),
		Year:          details.Year(),
		ReleaseDate:   details.Date(),
		IMDBID:        details.ExternalIDs.IMDBID,
		TMDBID:        tmdbID,
		JWEntryID:     entryID,
		GenresJSON:    marshaled["genres"],
		RuntimeMin:    details.RuntimeMinutes(),
		CountriesJSON: marshaled["countries"],
		LanguagesJSON: marshaled["languages"],
		DirectorsJSON: marshaled["directors"],
		CastJSON:      marshaled["cast"],
		PosterURL:     details.PosterURL(),
		BackdropURL:   details.BackdropURL(),
		TMDBVoteAvg:   details.VoteAverage,
		TMDBVoteCount: details.VoteCount,
	}, nil
}

// isDirector matches the movie crew job exactly; TV credits use compound jobs
// like "Series Director", so a substring match applies there.
func isDirector(media tmdb.Media, job string) bool {
	if media == tmdb.MediaMovie {
		return job == "Director"
	}
	return strings.Contains(job, "Director")
}
