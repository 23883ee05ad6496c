package catalog

import (
	"strconv"
	"strings"
)

// Candidate represents a single catalog search hit.
type Candidate struct {
	EntryID       string
	ObjectType    string
	Title         string
	OriginalTitle string
	ReleaseYear   int
	ReleaseDate   string
	URL           string
}

// Year returns the candidate's release year, falling back to the first four
// characters of the release date. Zero means unknown.
func (c Candidate) Year() int {
	if c.ReleaseYear > 0 {
		return c.ReleaseYear
	}
	date := strings.TrimSpace(c.ReleaseDate)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// DisplayTitle returns the localized title when present, else the original.
func (c Candidate) DisplayTitle() string {
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return c.OriginalTitle
}

// RawOffer is one offer node exactly as the API returned it. Normalization
// into a canonical shape happens in the offers package.
type RawOffer = Record
