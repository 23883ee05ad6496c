package offers

import (
	"strconv"
	"strings"

	"lbxwatch/internal/catalog"
)

// Offer is the canonical shape of one provider's current offer for a title.
type Offer struct {
	ProviderID       int64
	ProviderName     string
	PresentationType string
	URL              string
}

// presentationRank orders streaming quality tiers for per-provider dedupe.
func presentationRank(presentation string) int {
	switch canonicalPresentation(presentation) {
	case "4K":
		return 3
	case "HD":
		return 2
	case "SD":
		return 1
	default:
		return 0
	}
}

// canonicalPresentation maps API spellings (_4K, UHD, lowercase) onto the
// stored tier names.
func canonicalPresentation(presentation string) string {
	p := strings.ToUpper(strings.TrimSpace(presentation))
	p = strings.TrimPrefix(p, "_")
	if p == "UHD" {
		p = "4K"
	}
	return p
}

// Normalize maps raw catalog offer nodes into canonical offers. Offers with
// no resolvable provider id are dropped; when several raw offers share a
// provider, the highest presentation rank wins and ties keep the first seen.
// Output preserves first-seen provider order, so normalization is
// deterministic.
func Normalize(raw []catalog.RawOffer) []Offer {
	byProvider := make(map[int64]int, len(raw))
	result := make([]Offer, 0, len(raw))

	for _, rec := range raw {
		offer, ok := normalizeOne(rec)
		if !ok {
			continue
		}
		idx, seen := byProvider[offer.ProviderID]
		if !seen {
			byProvider[offer.ProviderID] = len(result)
			result = append(result, offer)
			continue
		}
		if presentationRank(offer.PresentationType) > presentationRank(result[idx].PresentationType) {
			result[idx] = offer
		}
	}
	return result
}

func normalizeOne(rec catalog.RawOffer) (Offer, bool) {
	providerID, ok := providerIDOf(rec)
	if !ok {
		return Offer{}, false
	}

	name := rec.String("provider_name", "providerName")
	if name == "" {
		if pkg := rec.Child("package"); pkg != nil {
			name = pkg.String("clearName", "name")
		}
	}
	if name == "" {
		name = strconv.FormatInt(providerID, 10)
	}

	return Offer{
		ProviderID:       providerID,
		ProviderName:     name,
		PresentationType: canonicalPresentation(rec.String("presentation_type", "presentationType")),
		URL:              urlOf(rec),
	}, true
}

func providerIDOf(rec catalog.RawOffer) (int64, bool) {
	if id, ok := rec.Int64("provider_id", "providerId"); ok {
		return id, true
	}
	if pkg := rec.Child("package"); pkg != nil {
		if id, ok := pkg.Int64("packageId", "package_id", "id"); ok {
			return id, true
		}
	}
	return 0, false
}

// urlOf extracts a deep link with the documented fallback order: the urls
// container's standard_web, then deeplink_web, then its generic url, then a
// top-level url field.
func urlOf(rec catalog.RawOffer) string {
	if urls := rec.Child("urls"); urls != nil {
		if u := urls.String("standard_web", "standardWebURL"); u != "" {
			return u
		}
		if u := urls.String("deeplink_web", "deeplinkURL"); u != "" {
			return u
		}
		if u := urls.String("url"); u != "" {
			return u
		}
	}
	if u := rec.String("standardWebURL", "standard_web"); u != "" {
		return u
	}
	if u := rec.String("deeplinkURL", "deeplink_web"); u != "" {
		return u
	}
	return rec.String("url")
}
