package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertFilmDetails inserts or refreshes the enriched metadata bundle keyed
// by TMDb id and returns the film row id.
func (s *Store) UpsertFilmDetails(ctx context.Context, film FilmDetails) (int64, error) {
	if film.TMDBID == 0 {
		return 0, errors.New("film details require a tmdb id")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO film_details
           (type, title, original_title, year, release_date, imdb_id, tmdb_id, jw_entry_id,
            genres_json, runtime_min, countries_json, languages_json, directors_json, cast_json,
            poster_url, backdrop_url, tmdb_vote_avg, tmdb_vote_count, box_office_usd)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(tmdb_id) DO UPDATE SET
           type            = excluded.type,
           title           = excluded.title,
           original_title  = excluded.original_title,
           year            = excluded.year,
           release_date    = excluded.release_date,
           imdb_id         = excluded.imdb_id,
           jw_entry_id     = excluded.jw_entry_id,
           genres_json     = excluded.genres_json,
           runtime_min     = excluded.runtime_min,
           countries_json  = excluded.countries_json,
           languages_json  = excluded.languages_json,
           directors_json  = excluded.directors_json,
           cast_json       = excluded.cast_json,
           poster_url      = excluded.poster_url,
           backdrop_url    = excluded.backdrop_url,
           tmdb_vote_avg   = excluded.tmdb_vote_avg,
           tmdb_vote_count = excluded.tmdb_vote_count,
           box_office_usd  = excluded.box_office_usd`,
		film.Type,
		film.Title,
		nullableString(film.OriginalTitle),
		nullableInt(film.Year),
		nullableString(film.ReleaseDate),
		nullableString(film.IMDBID),
		film.TMDBID,
		nullableString(film.JWEntryID),
		nullableString(film.GenresJSON),
		nullableInt(film.RuntimeMin),
		nullableString(film.CountriesJSON),
		nullableString(film.LanguagesJSON),
		nullableString(film.DirectorsJSON),
		nullableString(film.CastJSON),
		nullableString(film.PosterURL),
		nullableString(film.BackdropURL),
		film.TMDBVoteAvg,
		film.TMDBVoteCount,
		nullableInt64(film.BoxOfficeUSD),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert film details tmdb %d: %w", film.TMDBID, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM film_details WHERE tmdb_id = ?`, film.TMDBID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolve film id tmdb %d: %w", film.TMDBID, err)
	}
	return id, nil
}

// GetFilmDetails fetches an enriched bundle by row id, or nil when absent.
func (s *Store) GetFilmDetails(ctx context.Context, id int64) (*FilmDetails, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, title, original_title, year, release_date, imdb_id, tmdb_id, jw_entry_id,
                genres_json, runtime_min, countries_json, languages_json, directors_json, cast_json,
                poster_url, backdrop_url, tmdb_vote_avg, tmdb_vote_count, box_office_usd
         FROM film_details WHERE id = ?`, id,
	)

	var (
		film          FilmDetails
		originalTitle sql.NullString
		year          sql.NullInt64
		releaseDate   sql.NullString
		imdbID        sql.NullString
		jwEntryID     sql.NullString
		genres        sql.NullString
		runtime       sql.NullInt64
		countries     sql.NullString
		languages     sql.NullString
		directors     sql.NullString
		cast          sql.NullString
		poster        sql.NullString
		backdrop      sql.NullString
		voteAvg       sql.NullFloat64
		voteCount     sql.NullInt64
		boxOffice     sql.NullInt64
	)
	err := row.Scan(&film.ID, &film.Type, &film.Title, &originalTitle, &year, &releaseDate,
		&imdbID, &film.TMDBID, &jwEntryID, &genres, &runtime, &countries, &languages,
		&directors, &cast, &poster, &backdrop, &voteAvg, &voteCount, &boxOffice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get film details: %w", err)
	}

	film.OriginalTitle = stringOrEmpty(originalTitle)
	film.Year = intOrZero(year)
	film.ReleaseDate = stringOrEmpty(releaseDate)
	film.IMDBID = stringOrEmpty(imdbID)
	film.JWEntryID = stringOrEmpty(jwEntryID)
	film.GenresJSON = stringOrEmpty(genres)
	film.RuntimeMin = intOrZero(runtime)
	film.CountriesJSON = stringOrEmpty(countries)
	film.LanguagesJSON = stringOrEmpty(languages)
	film.DirectorsJSON = stringOrEmpty(directors)
	film.CastJSON = stringOrEmpty(cast)
	film.PosterURL = stringOrEmpty(poster)
	film.BackdropURL = stringOrEmpty(backdrop)
	if voteAvg.Valid {
		film.TMDBVoteAvg = voteAvg.Float64
	}
	film.TMDBVoteCount = int64OrZero(voteCount)
	film.BoxOfficeUSD = int64OrZero(boxOffice)
	return &film, nil
}
