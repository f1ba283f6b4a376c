package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// TrendPoint is one day of search interest for a city's tourism keyword.
type TrendPoint struct {
	Date     string `json:"date"`
	Interest int    `json:"interest"`
}

// GoogleTrendsProvider fetches a 7-day search-interest series for a city from
// the unofficial Google Trends JSON endpoints (explore handshake followed by
// a widgetdata request). No API key is needed, but the endpoints are rate
// limited aggressively, hence the desktop User-Agent.
type GoogleTrendsProvider struct {
	name       string
	exploreURL string
	dataURL    string
	userAgent  string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewGoogleTrendsProvider(client *http.Client) *GoogleTrendsProvider {
	return &GoogleTrendsProvider{
		name:       "googletrends",
		exploreURL: "https://trends.google.com/trends/api/explore",
		dataURL:    "https://trends.google.com/trends/api/widgetdata/multiline",
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
		client:     client,
		circuit:    newBreaker("googletrends"),
	}
}

func (p *GoogleTrendsProvider) Name() string {
	return p.name
}

// InterestOverTime returns the last week of search interest for
// "tourist places in <city>".
func (p *GoogleTrendsProvider) InterestOverTime(ctx context.Context, city string) ([]TrendPoint, error) {
	keyword := fmt.Sprintf("tourist places in %s", city)

	token, request, err := p.explore(ctx, keyword)
	if err != nil {
		return nil, err
	}

	return p.timeline(ctx, token, request)
}

// explore performs the handshake that yields the timeseries widget token.
func (p *GoogleTrendsProvider) explore(ctx context.Context, keyword string) (string, json.RawMessage, error) {
	exploreReq := map[string]interface{}{
		"comparisonItem": []map[string]string{
			{"keyword": keyword, "geo": "", "time": "now 7-d"},
		},
		"category": 0,
		"property": "",
	}
	reqJSON, err := json.Marshal(exploreReq)
	if err != nil {
		return "", nil, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("hl", "en-US")
		values.Set("tz", "360")
		values.Set("req", string(reqJSON))

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.exploreURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := readTrendsBody(resp.Body)
	if err != nil {
		return "", nil, err
	}

	var payload struct {
		Widgets []struct {
			ID      string          `json:"id"`
			Token   string          `json:"token"`
			Request json.RawMessage `json:"request"`
		} `json:"widgets"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, err
	}

	for _, w := range payload.Widgets {
		if w.ID == "TIMESERIES" {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, fmt.Errorf("no timeseries widget in trends explore response")
}

func (p *GoogleTrendsProvider) timeline(ctx context.Context, token string, request json.RawMessage) ([]TrendPoint, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("hl", "en-US")
		values.Set("tz", "360")
		values.Set("token", token)
		values.Set("req", string(request))

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.dataURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readTrendsBody(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Default struct {
			TimelineData []struct {
				Time  string `json:"time"` // unix seconds
				Value []int  `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(payload.Default.TimelineData))
	for _, d := range payload.Default.TimelineData {
		if len(d.Value) == 0 {
			continue
		}
		unix, err := strconv.ParseInt(d.Time, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, TrendPoint{
			Date:     time.Unix(unix, 0).UTC().Format("2006-01-02"),
			Interest: d.Value[0],
		})
	}

	return points, nil
}

// readTrendsBody strips the anti-XSSI prefix ()]}'...) Google prepends to its
// trends JSON responses.
func readTrendsBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(body, '{'); i > 0 {
		body = body[i:]
	}
	return body, nil
}
