package pulse

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionTornado      Condition = "tornado"
	ConditionMist         Condition = "mist"
	ConditionFog          Condition = "fog"
)

// Pattern is the animation pattern derived for a city pulse.
type Pattern string

const (
	PatternCalm    Pattern = "calm"
	PatternNormal  Pattern = "normal"
	PatternErratic Pattern = "erratic"
	PatternIntense Pattern = "intense"
)

// Location identifies a resolved city with coordinates.
type Location struct {
	City    string  `json:"city"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	return fmt.Sprintf("%s:%s:%.4f:%.4f", l.City, l.Country, l.Lat, l.Lon)
}

// WeatherSignal is the normalized current-conditions record for a coordinate.
type WeatherSignal struct {
	Temperature   float64   `json:"temperature"` // °C
	FeelsLike     float64   `json:"feels_like"`  // °C
	Humidity      float64   `json:"humidity"`    // percent
	Pressure      float64   `json:"pressure"`    // hPa
	Description   string    `json:"description"`
	Main          Condition `json:"main"`
	Icon          string    `json:"icon,omitempty"`
	WindSpeed     float64   `json:"wind_speed"`     // m/s
	WindDirection float64   `json:"wind_direction"` // degrees
	Clouds        float64   `json:"clouds"`         // percent cover
	Visibility    float64   `json:"visibility"`     // km
	UVIndex       float64   `json:"uv_index,omitempty"`
}

// Pollutant keys used in AirQualityReading.Components.
const (
	PollutantCO   = "co"
	PollutantNO   = "no"
	PollutantNO2  = "no2"
	PollutantO3   = "o3"
	PollutantSO2  = "so2"
	PollutantPM25 = "pm2_5"
	PollutantPM10 = "pm10"
	PollutantNH3  = "nh3"
)

// AirQualityReading holds the categorical air quality index and pollutant
// concentrations in µg/m³. Not all providers return all pollutant keys.
type AirQualityReading struct {
	AQI        int                `json:"aqi"` // 1 (Good) through 5 (Very Poor)
	Components map[string]float64 `json:"components,omitempty"`
}

// Describe returns the human-readable label for the reading's AQI category.
func (r AirQualityReading) Describe() string {
	switch r.AQI {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return "Unknown"
	}
}

// CrimeSignal is a simulated crime-risk record for a coordinate.
type CrimeSignal struct {
	RiskLevel    float64            `json:"risk_level"` // clamped to [0,1]
	Incidents24h int                `json:"incidents_24h"`
	Trend        string             `json:"trend"` // increasing, decreasing, stable
	Categories   map[string]float64 `json:"categories,omitempty"`
}

// TourismSignal is a simulated tourist-activity record for a city.
type TourismSignal struct {
	ActivityLevel  float64 `json:"activity_level"` // clamped to [0,1]
	HotspotsActive int     `json:"hotspots_active"`
	PeakHours      []int   `json:"peak_hours,omitempty"`
	SeasonalTrend  string  `json:"seasonal_trend"`
}

// PulseState is the composite visual state derived from all signals.
// It is produced fresh on every derivation and never mutated afterwards.
type PulseState struct {
	Color     string  `json:"color"`     // hex, keyed by AQI bucket
	Speed     float64 `json:"speed"`     // capped at 3.0
	Intensity float64 `json:"intensity"` // [0,1]
	Pattern   Pattern `json:"pattern"`
	Size      int     `json:"size"` // pixels, [80,120]
	Glow      float64 `json:"glow"` // [0.1,1.0]
}

// CitySnapshot bundles the derived pulse with the raw signal records it was
// computed from, for display tabs that show raw figures alongside the pulse.
type CitySnapshot struct {
	Location  Location          `json:"location"`
	Timestamp time.Time         `json:"timestamp"` // always UTC
	Weather   WeatherSignal     `json:"weather"`
	Air       AirQualityReading `json:"air_quality"`
	Crime     CrimeSignal       `json:"crime"`
	Tourism   TourismSignal     `json:"tourism"`
	Pulse     PulseState        `json:"pulse"`
}

// DefaultWeatherSignal returns the fully-populated record substituted when
// every weather provider fails, so downstream derivation never sees missing
// fields.
func DefaultWeatherSignal() WeatherSignal {
	return WeatherSignal{
		Temperature:   25,
		FeelsLike:     25,
		Humidity:      60,
		Pressure:      1013,
		Description:   "Clear sky",
		Main:          ConditionClear,
		WindSpeed:     3,
		WindDirection: 180,
		Clouds:        20,
		Visibility:    10,
	}
}

// DefaultAirQualityReading returns the fallback air quality record.
func DefaultAirQualityReading() AirQualityReading {
	return AirQualityReading{
		AQI: 2,
		Components: map[string]float64{
			PollutantPM25: 15,
			PollutantPM10: 25,
		},
	}
}

// DefaultCrimeSignal returns the fallback crime record.
func DefaultCrimeSignal() CrimeSignal {
	return CrimeSignal{
		RiskLevel:    0.3,
		Incidents24h: 3,
		Trend:        "stable",
	}
}

// DefaultTourismSignal returns the fallback tourism record.
func DefaultTourismSignal() TourismSignal {
	return TourismSignal{
		ActivityLevel:  0.6,
		HotspotsActive: 8,
		SeasonalTrend:  "medium",
	}
}
