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

// OpenWeatherProvider implements pulse.WeatherProvider for OpenWeatherMap,
// combining the current-weather and air-pollution endpoints into one report.
type OpenWeatherProvider struct {
	name       string
	apiKey     string
	weatherURL string
	airURL     string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		weatherURL: "https://api.openweathermap.org/data/2.5/weather",
		airURL:     "https://api.openweathermap.org/data/2.5/air_pollution",
		client:     client,
		circuit:    newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Current(ctx context.Context, loc pulse.Location) (pulse.WeatherReport, error) {
	if p.apiKey == "" {
		return pulse.WeatherReport{}, fmt.Errorf("openweather api key is not configured")
	}

	signal, err := p.fetchWeather(ctx, loc)
	if err != nil {
		return pulse.WeatherReport{}, err
	}

	report := pulse.WeatherReport{Weather: signal}

	// Air quality is a separate endpoint; its failure does not void the
	// weather reading.
	air, err := p.fetchAir(ctx, loc)
	if err == nil {
		report.Air = air
	}

	return report, nil
}

func (p *OpenWeatherProvider) fetchWeather(ctx context.Context, loc pulse.Location) (pulse.WeatherSignal, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		if loc.Lat != 0 || loc.Lon != 0 {
			values.Set("lat", fmt.Sprintf("%f", loc.Lat))
			values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		} else {
			values.Set("q", loc.City)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.weatherURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return pulse.WeatherSignal{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
			Pressure  float64 `json:"pressure"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Visibility float64 `json:"visibility"` // meters
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pulse.WeatherSignal{}, err
	}

	signal := pulse.WeatherSignal{
		Temperature:   payload.Main.Temp,
		FeelsLike:     payload.Main.FeelsLike,
		Humidity:      payload.Main.Humidity,
		Pressure:      payload.Main.Pressure,
		Main:          pulse.ConditionUnknown,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Clouds:        payload.Clouds.All,
		Visibility:    payload.Visibility / 1000,
	}
	if len(payload.Weather) > 0 {
		signal.Description = titleCase.String(payload.Weather[0].Description)
		signal.Main = mapOpenWeatherMain(payload.Weather[0].Main)
		signal.Icon = payload.Weather[0].Icon
	}
	if signal.Visibility == 0 {
		signal.Visibility = 10
	}

	return signal, nil
}

func (p *OpenWeatherProvider) fetchAir(ctx context.Context, loc pulse.Location) (*pulse.AirQualityReading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.airURL, values.Encode()), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components map[string]float64 `json:"components"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("no air quality data available")
	}

	entry := payload.List[0]
	return &pulse.AirQualityReading{
		AQI:        entry.Main.AQI,
		Components: entry.Components,
	}, nil
}

func mapOpenWeatherMain(main string) pulse.Condition {
	switch main {
	case "Clear":
		return pulse.ConditionClear
	case "Clouds":
		return pulse.ConditionClouds
	case "Rain", "Drizzle":
		return pulse.ConditionRain
	case "Snow":
		return pulse.ConditionSnow
	case "Thunderstorm":
		return pulse.ConditionThunderstorm
	case "Tornado":
		return pulse.ConditionTornado
	case "Mist", "Smoke", "Haze", "Dust":
		return pulse.ConditionMist
	case "Fog":
		return pulse.ConditionFog
	default:
		return pulse.ConditionUnknown
	}
}
