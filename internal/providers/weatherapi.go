package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jotthecode/city-pulse/internal/pulse"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements pulse.WeatherProvider for WeatherAPI.com,
// used as the secondary merge source (UV index, EPA air quality index).
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		client:  client,
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Current(ctx context.Context, loc pulse.Location) (pulse.WeatherReport, error) {
	if p.apiKey == "" {
		return pulse.WeatherReport{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("aqi", "yes")
		// WeatherAPI uses "q" for location; it accepts "lat,lon" or a city name.
		if loc.Lat != 0 || loc.Lon != 0 {
			values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
		} else {
			values.Set("q", loc.City)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return pulse.WeatherReport{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			TempC      float64 `json:"temp_c"`
			FeelsLikeC float64 `json:"feelslike_c"`
			Humidity   float64 `json:"humidity"`
			PressureMb float64 `json:"pressure_mb"`
			WindKph    float64 `json:"wind_kph"`
			WindDegree float64 `json:"wind_degree"`
			Cloud      float64 `json:"cloud"`
			VisKm      float64 `json:"vis_km"`
			UV         float64 `json:"uv"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
			AirQuality map[string]float64 `json:"air_quality"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pulse.WeatherReport{}, err
	}

	c := payload.Current
	signal := pulse.WeatherSignal{
		Temperature:   c.TempC,
		FeelsLike:     c.FeelsLikeC,
		Humidity:      c.Humidity,
		Pressure:      c.PressureMb,
		Description:   titleCase.String(c.Condition.Text),
		Main:          mapWeatherAPICondition(c.Condition.Text),
		WindSpeed:     c.WindKph / 3.6,
		WindDirection: c.WindDegree,
		Clouds:        c.Cloud,
		Visibility:    c.VisKm,
		UVIndex:       c.UV,
	}

	report := pulse.WeatherReport{Weather: signal}
	if air := mapWeatherAPIAir(c.AirQuality); air != nil {
		report.Air = air
	}

	return report, nil
}

// mapWeatherAPIAir converts WeatherAPI's air_quality block, whose AQI is the
// US EPA index on the same 1-5(6) scale as OpenWeather's categorical index.
func mapWeatherAPIAir(aq map[string]float64) *pulse.AirQualityReading {
	if len(aq) == 0 {
		return nil
	}

	reading := &pulse.AirQualityReading{Components: make(map[string]float64)}
	for key, value := range aq {
		switch key {
		case "us-epa-index":
			reading.AQI = int(value)
		case "gb-defra-index":
			// DEFRA runs 1-10; ignored in favor of the EPA index.
		default:
			reading.Components[strings.ReplaceAll(key, "-", "_")] = value
		}
	}
	if reading.AQI < 1 {
		return nil
	}
	if reading.AQI > 5 {
		reading.AQI = 5
	}
	return reading
}

func mapWeatherAPICondition(text string) pulse.Condition {
	switch {
	case text == "":
		return pulse.ConditionUnknown
	case containsFold(text, "thunder") || containsFold(text, "storm"):
		return pulse.ConditionThunderstorm
	case containsFold(text, "rain") || containsFold(text, "shower") || containsFold(text, "drizzle"):
		return pulse.ConditionRain
	case containsFold(text, "snow") || containsFold(text, "sleet") || containsFold(text, "blizzard"):
		return pulse.ConditionSnow
	case containsFold(text, "fog"):
		return pulse.ConditionFog
	case containsFold(text, "mist") || containsFold(text, "haze"):
		return pulse.ConditionMist
	case containsFold(text, "cloud") || containsFold(text, "overcast"):
		return pulse.ConditionClouds
	case containsFold(text, "sunny") || containsFold(text, "clear"):
		return pulse.ConditionClear
	default:
		return pulse.ConditionUnknown
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
