package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Jotthecode/city-pulse/internal/pulse"
	"github.com/sony/gobreaker"
)

// OpenMeteoProvider implements pulse.WeatherProvider for Open-Meteo, the
// keyless fallback when no OpenWeatherMap key is configured. It supplies no
// air quality reading.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Current(ctx context.Context, loc pulse.Location) (pulse.WeatherReport, error) {
	if loc.Lat == 0 && loc.Lon == 0 {
		return pulse.WeatherReport{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return pulse.WeatherReport{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			FeelsLike   float64 `json:"apparent_temperature"`
			WeatherCode int     `json:"weather_code"`
			CloudCover  float64 `json:"cloud_cover"`
			PressureMsl float64 `json:"pressure_msl"`
			WindSpeed   float64 `json:"wind_speed_10m"` // km/h
			WindDir     float64 `json:"wind_direction_10m"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pulse.WeatherReport{}, err
	}

	c := payload.Current
	signal := pulse.WeatherSignal{
		Temperature:   c.Temperature,
		FeelsLike:     c.FeelsLike,
		Humidity:      c.Humidity,
		Pressure:      c.PressureMsl,
		Description:   wmoCodeDescription(c.WeatherCode),
		Main:          mapWMOCode(c.WeatherCode),
		WindSpeed:     c.WindSpeed / 3.6,
		WindDirection: c.WindDir,
		Clouds:        c.CloudCover,
		Visibility:    10, // not reported by this endpoint
	}

	return pulse.WeatherReport{Weather: signal}, nil
}

// mapWMOCode maps WMO weather interpretation codes onto normalized
// conditions (simplified).
func mapWMOCode(code int) pulse.Condition {
	switch {
	case code <= 1:
		return pulse.ConditionClear
	case code <= 3:
		return pulse.ConditionClouds
	case code <= 48:
		return pulse.ConditionMist
	case code <= 67:
		return pulse.ConditionRain
	case code <= 86:
		return pulse.ConditionSnow
	case code >= 95:
		return pulse.ConditionThunderstorm
	default:
		return pulse.ConditionUnknown
	}
}

var wmoDescriptions = map[int]string{
	0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
	45: "Fog", 48: "Depositing rime fog",
	51: "Light drizzle", 53: "Moderate drizzle", 55: "Dense drizzle",
	61: "Slight rain", 63: "Moderate rain", 65: "Heavy rain",
	66: "Light freezing rain", 67: "Heavy freezing rain",
	71: "Slight snow fall", 73: "Moderate snow fall", 75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers", 81: "Moderate rain showers", 82: "Violent rain showers",
	85: "Slight snow showers", 86: "Heavy snow showers",
	95: "Thunderstorm", 96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

func wmoCodeDescription(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}
