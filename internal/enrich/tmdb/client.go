package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Media selects the TMDb endpoint family.
type Media string

const (
	MediaMovie Media = "movie"
	MediaTV    Media = "tv"
)

// Result represents a single TMDb search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// Response models the TMDb paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre is one TMDb genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Country is one TMDb production country entry.
type Country struct {
	ISO3166 string `json:"iso_3166_1"`
	Name    string `json:"name"`
}

// Language is one TMDb spoken language entry.
type Language struct {
	ISO639 string `json:"iso_639_1"`
	Name   string `json:"name"`
}

// ExternalIDs carries cross-database identifiers for a title.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
}

// CastMember is one credited cast entry.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

// CrewMember is one credited crew entry.
type CrewMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits bundles cast and crew for a title.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Details is the full TMDb detail payload with external ids and credits
// appended. Movie and TV responses share the struct; absent fields stay zero.
type Details struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	Name                string      `json:"name"`
	OriginalTitle       string      `json:"original_title"`
	OriginalName        string      `json:"original_name"`
	ReleaseDate         string      `json:"release_date"`
	FirstAirDate        string      `json:"first_air_date"`
	Runtime             int         `json:"runtime"`
	EpisodeRunTime      []int       `json:"episode_run_time"`
	Genres              []Genre     `json:"genres"`
	ProductionCountries []Country   `json:"production_countries"`
	SpokenLanguages     []Language  `json:"spoken_languages"`
	PosterPath          string      `json:"poster_path"`
	BackdropPath        string      `json:"backdrop_path"`
	VoteAverage         float64     `json:"vote_average"`
	VoteCount           int64       `json:"vote_count"`
	ExternalIDs         ExternalIDs `json:"external_ids"`
	Credits             Credits     `json:"credits"`
}

// DisplayTitle returns the movie title or, for TV, the show name.
func (d *Details) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// OriginalDisplayTitle returns the original-language title for either media.
func (d *Details) OriginalDisplayTitle() string {
	if d.OriginalTitle != "" {
		return d.OriginalTitle
	}
	return d.OriginalName
}

// Date returns the release date (movie) or first air date (TV).
func (d *Details) Date() string {
	if d.ReleaseDate != "" {
		return d.ReleaseDate
	}
	return d.FirstAirDate
}

// Year derives the four-digit year from the date, zero when unparseable.
func (d *Details) Year() int {
	date := d.Date()
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// RuntimeMinutes returns the movie runtime or the first TV episode runtime.
func (d *Details) RuntimeMinutes() int {
	if d.Runtime > 0 {
		return d.Runtime
	}
	if len(d.EpisodeRunTime) > 0 {
		return d.EpisodeRunTime[0]
	}
	return 0
}

// PosterURL builds the full image URL for the poster, empty when absent.
func (d *Details) PosterURL() string {
	if d.PosterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + d.PosterPath
}

// BackdropURL builds the full image URL for the backdrop, empty when absent.
func (d *Details) BackdropURL() string {
	if d.BackdropPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w780" + d.BackdropPath
}

// Client provides access to the TMDb API for searches and detail lookups.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDb client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie searches TMDb movies, optionally pinned to a release year.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*Response, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/movie", query, params)
}

// SearchTV searches TMDb TV shows, optionally pinned to a first-air year.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	return c.search(ctx, "/search/tv", query, params)
}

func (c *Client) search(ctx context.Context, path, query string, params url.Values) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params.Set("query", query)

	var payload Response
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Details fetches the full detail bundle for one title, with external ids and
// credits appended in the same request.
func (c *Client) Details(ctx context.Context, media Media, id int64) (*Details, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "external_ids,credits")

	var payload Details
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", media, id), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d for %s (latency=%v)", resp.StatusCode, path, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
