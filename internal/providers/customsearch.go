package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
)

// SearchResult is one web result from the chat panel's search backend.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// CustomSearchProvider answers free-text chat questions through the Google
// Custom Search JSON API.
type CustomSearchProvider struct {
	name       string
	apiKey     string
	engineID   string
	baseURL    string
	maxResults int
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewCustomSearchProvider(client *http.Client, apiKey, engineID string) *CustomSearchProvider {
	return &CustomSearchProvider{
		name:       "customsearch",
		apiKey:     apiKey,
		engineID:   engineID,
		baseURL:    "https://www.googleapis.com/customsearch/v1",
		maxResults: 3,
		client:     client,
		circuit:    newBreaker("customsearch"),
	}
}

func (p *CustomSearchProvider) Name() string {
	return p.name
}

// Search returns the top web results for a free-text query.
func (p *CustomSearchProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if p.apiKey == "" || p.engineID == "" {
		return nil, fmt.Errorf("custom search api key or engine id is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("cx", p.engineID)
		values.Set("q", query)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	items := payload.Items
	if len(items) > p.maxResults {
		items = items[:p.maxResults]
	}

	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}

	return results, nil
}
