// Package geocode resolves city names to coordinates and powers the city
// search box. OpenWeatherMap's geocoding API is the primary source; Google
// geocoding serves as a fallback when only a Google key is configured.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/Jotthecode/city-pulse/internal/pulse"
)

// ErrCityNotFound is returned when no provider can resolve the city.
// Callers surface this as a distinct "not found" outcome instead of
// defaulting, since pulse data for a nonexistent location is meaningless.
var ErrCityNotFound = errors.New("city not found")

// CityMatch is a single city search result.
type CityMatch struct {
	Label   string  `json:"label"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Geocoder resolves and searches cities.
type Geocoder struct {
	owmKey    string
	googleKey string
	baseURL   string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

// New creates a Geocoder. Either key may be empty; Resolve fails with
// ErrCityNotFound only after all configured sources come up empty.
func New(client *http.Client, owmKey, googleKey string) *Geocoder {
	if googleKey != "" {
		geocoder.ApiKey = googleKey
	}
	return &Geocoder{
		owmKey:    owmKey,
		googleKey: googleKey,
		baseURL:   "https://api.openweathermap.org/geo/1.0/direct",
		client:    client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "geocode",
			MaxRequests: 5,
		}),
	}
}

// Search returns up to five cities matching the query.
func (g *Geocoder) Search(ctx context.Context, query string) ([]CityMatch, error) {
	if g.owmKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}
	return g.direct(ctx, query, 5)
}

// Resolve returns the location for a city name, trying OpenWeatherMap first
// and Google geocoding second.
func (g *Geocoder) Resolve(ctx context.Context, city string) (pulse.Location, error) {
	if g.owmKey != "" {
		matches, err := g.direct(ctx, city, 1)
		if err == nil && len(matches) > 0 {
			m := matches[0]
			return pulse.Location{City: m.City, Country: m.Country, Lat: m.Lat, Lon: m.Lon}, nil
		}
		if err == nil {
			return pulse.Location{}, ErrCityNotFound
		}
		// Provider failure (not a miss); fall through to Google if possible.
		if g.googleKey == "" {
			return pulse.Location{}, err
		}
	}

	if g.googleKey != "" {
		loc, err := geocoder.Geocoding(geocoder.Address{City: city})
		if err != nil {
			return pulse.Location{}, fmt.Errorf("%w: %v", ErrCityNotFound, err)
		}
		return pulse.Location{City: city, Lat: loc.Latitude, Lon: loc.Longitude}, nil
	}

	return pulse.Location{}, fmt.Errorf("no geocoding provider configured")
}

func (g *Geocoder) direct(ctx context.Context, query string, limit int) ([]CityMatch, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", fmt.Sprintf("%d", limit))
	values.Set("appid", g.owmKey)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := g.circuit.Execute(func() (interface{}, error) {
		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
		}

		var payload []struct {
			Name    string  `json:"name"`
			State   string  `json:"state"`
			Country string  `json:"country"`
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}

		matches := make([]CityMatch, 0, len(payload))
		for _, c := range payload {
			parts := []string{c.Name}
			if c.State != "" {
				parts = append(parts, c.State)
			}
			if c.Country != "" {
				parts = append(parts, c.Country)
			}
			matches = append(matches, CityMatch{
				Label:   strings.Join(parts, ", "),
				City:    c.Name,
				Country: c.Country,
				Lat:     c.Lat,
				Lon:     c.Lon,
			})
		}
		return matches, nil
	})
	if err != nil {
		return nil, err
	}

	matches, ok := result.([]CityMatch)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return matches, nil
}
