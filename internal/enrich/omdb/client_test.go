package omdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lbxwatch/internal/enrich/omdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := omdb.New("", "https://example.com"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestBoxOfficeParsesFormattedGross(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("apikey") != "key" || query.Get("i") != "tt0113277" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response":"True","BoxOffice":"$187,436,818"}`))
	}))
	t.Cleanup(server.Close)

	client, err := omdb.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	gross, err := client.BoxOffice(context.Background(), "tt0113277")
	if err != nil {
		t.Fatalf("BoxOffice returned error: %v", err)
	}
	if gross != 187436818 {
		t.Fatalf("expected 187436818, got %d", gross)
	}
}

func TestBoxOfficeMissingFigureIsZero(t *testing.T) {
	for name, body := range map[string]string{
		"not found":  `{"Response":"False","Error":"Incorrect IMDb ID."}`,
		"no figure":  `{"Response":"True","BoxOffice":"N/A"}`,
		"empty body": `{"Response":"True"}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(server.Close)

			client, err := omdb.New("key", server.URL)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			gross, err := client.BoxOffice(context.Background(), "tt0000001")
			if err != nil {
				t.Fatalf("BoxOffice returned error: %v", err)
			}
			if gross != 0 {
				t.Fatalf("expected zero gross, got %d", gross)
			}
		})
	}
}

func TestBoxOfficeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := omdb.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.BoxOffice(context.Background(), "tt0000001"); err == nil {
		t.Fatal("expected error when OMDb returns non-200")
	}
}

func TestBoxOfficeEmptyID(t *testing.T) {
	client, err := omdb.New("key", "https://example.com")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.BoxOffice(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty imdb id")
	}
}
