package store

import "time"

// SourceRow is one entry from the personal tracking log awaiting or eligible
// for resolution. Year zero means the export carried no year.
type SourceRow struct {
	Source string
	RowID  int64
	Title  string
	Year   int
}

// Mapping associates a source row with an external catalog entry. EntryID is
// empty until a resolution attempt succeeds; LastCheckedAt advances on every
// attempt either way, which is what drives staleness-based reprocessing.
type Mapping struct {
	Source        string
	SourceRowID   int64
	EntryID       string
	MatchedVia    string
	Confidence    int
	MatchedTitle  string
	MatchedYear   int
	MatchedType   string
	FilmID        int64
	LastCheckedAt time.Time
}

// Resolved reports whether the mapping carries a catalog entry id.
func (m Mapping) Resolved() bool { return m.EntryID != "" }

// CurrentOffer is the live snapshot row for one provider offering an item.
type CurrentOffer struct {
	ItemID           int64
	EntryID          string
	ProviderID       int64
	ProviderName     string
	PresentationType string
	URL              string
	LastSeenAt       time.Time
}

// HistoryRow is one validity interval in the availability history. ValidTo is
// nil while the interval is open.
type HistoryRow struct {
	ItemID           int64
	EntryID          string
	ProviderID       int64
	ProviderName     string
	PresentationType string
	URL              string
	ValidFrom        time.Time
	ValidTo          *time.Time
}

// FilmDetails is the enriched metadata bundle for a matched title.
type FilmDetails struct {
	ID            int64
	Type          string
	Title         string
	OriginalTitle string
	Year          int
	ReleaseDate   string
	IMDBID        string
	TMDBID        int64
	JWEntryID     string
	GenresJSON    string
	RuntimeMin    int
	CountriesJSON string
	LanguagesJSON string
	DirectorsJSON string
	CastJSON      string
	PosterURL     string
	BackdropURL   string
	TMDBVoteAvg   float64
	TMDBVoteCount int64
	BoxOfficeUSD  int64
}

// MappingSummary aggregates mapping state for one source.
type MappingSummary struct {
	SourceRows int
	Mapped     int
	Unmatched  int
	Stale      int
	Enriched   int
}
