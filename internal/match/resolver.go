package match

import (
	"strings"

	"lbxwatch/internal/catalog"
)

// Via records which signals produced a match.
type Via string

const (
	ViaNameOnly Via = "name_only"
	ViaNameYear Via = "name_year"
)

// MediaType is the canonical media classification of a matched entry.
type MediaType string

const (
	TypeMovie MediaType = "MOVIE"
	TypeShow  MediaType = "SHOW"
)

// Result holds the outcome of resolving one (title, year) pair against a
// candidate list. Candidate is nil when nothing matched.
type Result struct {
	Candidate   *catalog.Candidate
	Via         Via
	Confidence  int
	MatchedType MediaType
}

// Matched reports whether a candidate was selected.
func (r Result) Matched() bool { return r.Candidate != nil }

// Resolve scores each candidate against the target title and optional year
// (zero means unknown) and returns the best one. Scoring:
//
//	exact normalized title          +10, exact year a further +10 (name_year)
//	target substring of candidate    +3, year within ±1 a further +2 (name_year)
//
// Confidence is score*5 clamped to [0,100]. The highest score wins and
// first-seen order breaks ties, so resolution is deterministic and idempotent.
func Resolve(title string, year int, candidates []catalog.Candidate) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	target := normalizeTitle(title)

	best := -1
	bestScore := -1
	bestVia := ViaNameOnly
	for i := range candidates {
		score, via := scoreCandidate(target, year, candidates[i])
		if score > bestScore {
			best = i
			bestScore = score
			bestVia = via
		}
	}

	chosen := &candidates[best]
	return Result{
		Candidate:   chosen,
		Via:         bestVia,
		Confidence:  clampConfidence(bestScore * 5),
		MatchedType: mediaType(chosen.ObjectType),
	}
}

func scoreCandidate(target string, year int, candidate catalog.Candidate) (int, Via) {
	candidateTitle := normalizeTitle(candidate.DisplayTitle())
	candidateYear := candidate.Year()

	score := 0
	via := ViaNameOnly
	switch {
	case candidateTitle == target && target != "":
		score += 10
		if year > 0 && candidateYear == year {
			score += 10
			via = ViaNameYear
		}
	case target != "" && strings.Contains(candidateTitle, target):
		score += 3
		if year > 0 && candidateYear > 0 && abs(candidateYear-year) <= 1 {
			score += 2
			via = ViaNameYear
		}
	}
	return score, via
}

func mediaType(objectType string) MediaType {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(objectType)), "MOVIE") {
		return TypeMovie
	}
	return TypeShow
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func clampConfidence(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
