package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Jotthecode/city-pulse/internal/pulse"
	"github.com/sony/gobreaker"
)

// Article is a single crime-news headline.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsAPIProvider fetches city crime headlines from newsapi.org.
type NewsAPIProvider struct {
	name     string
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewNewsAPIProvider(client *http.Client, apiKey string) *NewsAPIProvider {
	return &NewsAPIProvider{
		name:     "newsapi",
		apiKey:   apiKey,
		baseURL:  "https://newsapi.org/v2/everything",
		pageSize: 10,
		client:   client,
		circuit:  newBreaker("newsapi"),
	}
}

func (p *NewsAPIProvider) Name() string {
	return p.name
}

// CrimeHeadlines returns the latest crime-related articles mentioning the city.
func (p *NewsAPIProvider) CrimeHeadlines(ctx context.Context, loc pulse.Location) ([]Article, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("newsapi key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", fmt.Sprintf("crime AND %s", loc.City))
		values.Set("apiKey", p.apiKey)
		values.Set("language", "en")
		values.Set("sortBy", "publishedAt")
		values.Set("pageSize", fmt.Sprintf("%d", p.pageSize))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Articles []struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}
