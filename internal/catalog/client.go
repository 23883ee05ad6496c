package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const searchTitlesQuery = `
query SearchTitles($country: Country!, $language: Language!, $first: Int!, $filter: TitleFilter) {
  popularTitles(country: $country, first: $first, filter: $filter) {
    edges {
      node {
        id
        objectType
        content(country: $country, language: $language) {
          title
          originalReleaseYear
          originalReleaseDate
          fullPath
        }
      }
    }
  }
}`

const titleOffersQuery = `
query TitleOffers($nodeId: ID!, $country: Country!, $language: Language!, $filter: OfferFilter!) {
  node(id: $nodeId) {
    ... on MovieOrShowOrSeason {
      offers(country: $country, platform: WEB, filter: $filter) {
        monetizationType
        presentationType
        standardWebURL
        deeplinkURL(platform: WEB)
        elementCount
        retailPriceValue
        currency
        package {
          id
          packageId
          clearName
        }
      }
    }
  }
}`

// Client provides access to the JustWatch GraphQL API for searches and offer
// lookups.
type Client struct {
	baseURL     string
	country     string
	language    string
	searchLimit int
	bestOnly    bool
	httpClient  *http.Client
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

// WithSearchLimit caps the number of search hits requested per query.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// WithBestOnly controls whether offer lookups request only the best
// presentation per provider and monetization type.
func WithBestOnly(bestOnly bool) Option {
	return func(c *Client) {
		c.bestOnly = bestOnly
	}
}

// New creates a catalog client scoped to one country and language.
func New(baseURL, country, language string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return nil, errors.New("catalog country required")
	}
	language = strings.TrimSpace(language)
	if language == "" {
		return nil, errors.New("catalog language required")
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		country:     country,
		language:    language,
		searchLimit: 10,
		bestOnly:    true,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Country returns the country code the client is scoped to.
func (c *Client) Country() string { return c.country }

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		PopularTitles struct {
			Edges []struct {
				Node struct {
					ID         string `json:"id"`
					ObjectType string `json:"objectType"`
					Content    struct {
						Title               string `json:"title"`
						OriginalReleaseYear int    `json:"originalReleaseYear"`
						OriginalReleaseDate string `json:"originalReleaseDate"`
						FullPath            string `json:"fullPath"`
					} `json:"content"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"popularTitles"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type offersResponse struct {
	Data struct {
		Node struct {
			Offers []RawOffer `json:"offers"`
		} `json:"node"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// Search queries the catalog for titles matching query. An empty slice, not
// an error, signals no hits.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	variables := map[string]any{
		"country":  c.country,
		"language": c.language,
		"first":    c.searchLimit,
		"filter":   map[string]any{"searchQuery": query},
	}

	var payload searchResponse
	if err := c.execute(ctx, searchTitlesQuery, variables, &payload); err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("catalog search: api error: %s", payload.Errors[0].Message)
	}

	candidates := make([]Candidate, 0, len(payload.Data.PopularTitles.Edges))
	for _, edge := range payload.Data.PopularTitles.Edges {
		node := edge.Node
		if strings.TrimSpace(node.ID) == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			EntryID:     node.ID,
			ObjectType:  node.ObjectType,
			Title:       node.Content.Title,
			ReleaseYear: node.Content.OriginalReleaseYear,
			ReleaseDate: node.Content.OriginalReleaseDate,
			URL:         node.Content.FullPath,
		})
	}
	return candidates, nil
}

// Offers fetches current raw offers for an entry in each requested country.
// Per-country failures yield an empty set for that country and are collected
// into the returned error so the caller can log them; the map is always
// usable. A country absent from the map means its lookup failed, while a
// present empty slice means the catalog genuinely reports no offers there.
func (c *Client) Offers(ctx context.Context, entryID string, countries []string) (map[string][]RawOffer, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, errors.New("entry id must not be empty")
	}
	if len(countries) == 0 {
		countries = []string{c.country}
	}

	result := make(map[string][]RawOffer, len(countries))
	var errs []error
	for _, country := range countries {
		country = strings.ToUpper(strings.TrimSpace(country))
		if country == "" {
			continue
		}
		offers, err := c.offersForCountry(ctx, entryID, country)
		if err != nil {
			errs = append(errs, fmt.Errorf("offers for %s: %w", country, err))
			continue
		}
		result[country] = offers
	}
	return result, errors.Join(errs...)
}

func (c *Client) offersForCountry(ctx context.Context, entryID, country string) ([]RawOffer, error) {
	variables := map[string]any{
		"nodeId":   entryID,
		"country":  country,
		"language": c.language,
		"filter":   map[string]any{"bestOnly": c.bestOnly},
	}

	var payload offersResponse
	if err := c.execute(ctx, titleOffersQuery, variables, &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("api error: %s", payload.Errors[0].Message)
	}
	if payload.Data.Node.Offers == nil {
		return []RawOffer{}, nil
	}
	return payload.Data.Node.Offers, nil
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
