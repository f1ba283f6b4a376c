package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
)

// MonthlySummary is one month of climate normals for a city.
type MonthlySummary struct {
	Month    int     `json:"month"`
	AvgTemp  float64 `json:"avg_temp"` // °C
	Humidity float64 `json:"humidity"` // percent
	Precip   float64 `json:"precip"`   // mm
}

// VisualCrossingProvider fetches the monthly climate summary shown beneath
// the current weather.
type VisualCrossingProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewVisualCrossingProvider(client *http.Client, apiKey string) *VisualCrossingProvider {
	return &VisualCrossingProvider{
		name:    "visualcrossing",
		apiKey:  apiKey,
		baseURL: "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
		client:  client,
		circuit: newBreaker("visualcrossing"),
	}
}

func (p *VisualCrossingProvider) Name() string {
	return p.name
}

// MonthlyClimate returns per-month averages for a city.
func (p *VisualCrossingProvider) MonthlyClimate(ctx context.Context, city string) ([]MonthlySummary, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("visual crossing api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("unitGroup", "metric")
		values.Set("include", "months")
		values.Set("key", p.apiKey)
		values.Set("contentType", "json")
		u := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(city), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Months []struct {
			Month    int     `json:"month"`
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Precip   float64 `json:"precip"`
		} `json:"months"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	summaries := make([]MonthlySummary, 0, len(payload.Months))
	for _, m := range payload.Months {
		summaries = append(summaries, MonthlySummary{
			Month:    m.Month,
			AvgTemp:  m.Temp,
			Humidity: m.Humidity,
			Precip:   m.Precip,
		})
	}

	return summaries, nil
}
