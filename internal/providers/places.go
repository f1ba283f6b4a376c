package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
)

// Place is a tourist attraction from Google Places text search.
type Place struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating,omitempty"`
}

// GooglePlacesProvider fetches top tourist attractions for a city.
type GooglePlacesProvider struct {
	name       string
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewGooglePlacesProvider(client *http.Client, apiKey string) *GooglePlacesProvider {
	return &GooglePlacesProvider{
		name:       "googleplaces",
		apiKey:     apiKey,
		baseURL:    "https://maps.googleapis.com/maps/api/place/textsearch/json",
		maxResults: 10,
		client:     client,
		circuit:    newBreaker("googleplaces"),
	}
}

func (p *GooglePlacesProvider) Name() string {
	return p.name
}

// TopAttractions returns the highest-ranked tourist attractions for a city.
func (p *GooglePlacesProvider) TopAttractions(ctx context.Context, city string) ([]Place, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("google places api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("query", fmt.Sprintf("top tourist attractions in %s", city))
		values.Set("key", p.apiKey)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name             string  `json:"name"`
			FormattedAddress string  `json:"formatted_address"`
			Rating           float64 `json:"rating"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	results := payload.Results
	if len(results) > p.maxResults {
		results = results[:p.maxResults]
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, Place{
			Name:    r.Name,
			Address: r.FormattedAddress,
			Rating:  r.Rating,
		})
	}

	return places, nil
}

// NearbyPlace is a point of interest from OSM Nominatim.
type NearbyPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Class       string  `json:"class,omitempty"`
	Type        string  `json:"type,omitempty"`
}

// NominatimProvider searches OSM Nominatim for places near a coordinate,
// bounded to a small viewbox around it.
type NominatimProvider struct {
	name      string
	baseURL   string
	userAgent string
	boxDelta  float64
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

func NewNominatimProvider(client *http.Client) *NominatimProvider {
	return &NominatimProvider{
		name:      "nominatim",
		baseURL:   "https://nominatim.openstreetmap.org/search",
		userAgent: "city-pulse",
		boxDelta:  0.05,
		client:    client,
		circuit:   newBreaker("nominatim"),
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

// Nearby searches for places matching query inside a bounding box around the
// given coordinate.
func (p *NominatimProvider) Nearby(ctx context.Context, query string, lat, lon float64) ([]NearbyPlace, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("format", "json")
		values.Set("limit", "5")
		values.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", lon-p.boxDelta, lat+p.boxDelta, lon+p.boxDelta, lat-p.boxDelta))
		values.Set("bounded", "1")

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		// Nominatim's usage policy requires an identifying User-Agent.
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Class       string `json:"class"`
		Type        string `json:"type"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	places := make([]NearbyPlace, 0, len(payload))
	for _, r := range payload {
		lat, _ := strconv.ParseFloat(r.Lat, 64)
		lon, _ := strconv.ParseFloat(r.Lon, 64)
		places = append(places, NearbyPlace{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Class:       r.Class,
			Type:        r.Type,
		})
	}

	return places, nil
}
