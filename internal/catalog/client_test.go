package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lbxwatch/internal/catalog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...catalog.Option) *catalog.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := catalog.New(server.URL, "GB", "en", opts...)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return client
}

func TestSearchParsesCandidates(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":{"popularTitles":{"edges":[
			{"node":{"id":"tm1","objectType":"MOVIE","content":{"title":"Heat","originalReleaseYear":1995,"fullPath":"/uk/movie/heat"}}},
			{"node":{"id":"ts2","objectType":"SHOW","content":{"title":"Heat Wave","originalReleaseDate":"2022-05-01"}}},
			{"node":{"id":"","objectType":"MOVIE","content":{"title":"No Id"}}}
		]}}}`))
	})

	candidates, err := client.Search(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].EntryID != "tm1" || candidates[0].Year() != 1995 {
		t.Fatalf("unexpected first candidate: %#v", candidates[0])
	}
	if candidates[1].Year() != 2022 {
		t.Fatalf("expected year from release date, got %d", candidates[1].Year())
	}

	vars, _ := gotBody["variables"].(map[string]any)
	if vars["country"] != "GB" {
		t.Fatalf("expected country GB in request, got %v", vars["country"])
	}
	filter, _ := vars["filter"].(map[string]any)
	if filter["searchQuery"] != "Heat" {
		t.Fatalf("expected search query in filter, got %v", filter)
	}
}

func TestSearchNoHitsIsEmptyNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"popularTitles":{"edges":[]}}}`))
	})
	candidates, err := client.Search(context.Background(), "Unknown Film X")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestSearchSurfacesHTTPFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.Search(context.Background(), "Heat"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestOffersReturnsRawNodesPerCountry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"node":{"offers":[
			{"monetizationType":"FLATRATE","presentationType":"HD","standardWebURL":"https://example.com/watch","package":{"packageId":8,"clearName":"Netflix"}}
		]}}}`))
	})

	offers, err := client.Offers(context.Background(), "tm1", []string{"GB"})
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}
	gb := offers["GB"]
	if len(gb) != 1 {
		t.Fatalf("expected one offer, got %d", len(gb))
	}
	if got := gb[0].Child("package").String("clearName"); got != "Netflix" {
		t.Fatalf("unexpected provider name: %q", got)
	}
}

func TestOffersPerCountryFailureLeavesCountryAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		vars := body["variables"].(map[string]any)
		if vars["country"] == "DE" {
			_, _ = w.Write([]byte(`{"errors":[{"message":"region unavailable"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"node":{"offers":[]}}}`))
	})

	offers, err := client.Offers(context.Background(), "tm1", []string{"GB", "DE"})
	if err == nil || !strings.Contains(err.Error(), "DE") {
		t.Fatalf("expected joined error naming DE, got %v", err)
	}
	if _, ok := offers["GB"]; !ok {
		t.Fatal("expected GB present with empty offers")
	}
	if _, ok := offers["DE"]; ok {
		t.Fatal("expected DE absent after failure")
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := catalog.Record{
		"providerId":        float64(8),
		"presentation_type": "HD",
		"urls":              map[string]any{"standard_web": "https://example.com/w"},
	}
	if id, ok := rec.Int64("provider_id", "providerId"); !ok || id != 8 {
		t.Fatalf("expected provider id 8, got %d ok=%v", id, ok)
	}
	if got := rec.String("presentation_type", "presentationType"); got != "HD" {
		t.Fatalf("unexpected presentation: %q", got)
	}
	if got := rec.Child("urls").String("standard_web"); got != "https://example.com/w" {
		t.Fatalf("unexpected url: %q", got)
	}
	if _, ok := rec.Int64("missing"); ok {
		t.Fatal("expected missing key to report absence")
	}
}
