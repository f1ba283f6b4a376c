package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchMapsMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") == "" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[
			{"name": "Paris", "state": "Ile-de-France", "country": "FR", "lat": 48.8566, "lon": 2.3522},
			{"name": "Paris", "state": "Texas", "country": "US", "lat": 33.6609, "lon": -95.5555}
		]`)
	}))
	defer server.Close()

	g := New(server.Client(), "test-key", "")
	g.baseURL = server.URL

	matches, err := g.Search(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Label != "Paris, Ile-de-France, FR" {
		t.Errorf("label = %q", matches[0].Label)
	}
	if matches[1].Country != "US" || matches[1].Lon != -95.5555 {
		t.Errorf("second match not mapped: %+v", matches[1])
	}
}

func TestResolveReturnsLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "Tokyo", "country": "JP", "lat": 35.6762, "lon": 139.6503}]`)
	}))
	defer server.Close()

	g := New(server.Client(), "test-key", "")
	g.baseURL = server.URL

	loc, err := g.Resolve(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.City != "Tokyo" || loc.Country != "JP" || loc.Lat != 35.6762 {
		t.Errorf("location = %+v", loc)
	}
}

func TestResolveEmptyResultIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	g := New(server.Client(), "test-key", "")
	g.baseURL = server.URL

	_, err := g.Resolve(context.Background(), "Atlantis")
	if !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("err = %v, want ErrCityNotFound", err)
	}
}

func TestResolveProviderFailureWithoutFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer server.Close()

	g := New(server.Client(), "test-key", "")
	g.baseURL = server.URL

	_, err := g.Resolve(context.Background(), "Tokyo")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrCityNotFound) {
		t.Fatalf("provider failure misreported as not-found: %v", err)
	}
}

func TestResolveWithoutAnyProvider(t *testing.T) {
	g := New(http.DefaultClient, "", "")
	if _, err := g.Resolve(context.Background(), "Tokyo"); err == nil {
		t.Fatal("expected an error with no configured provider")
	}
}
