package pulse

import (
	"context"
	"time"
)

// WeatherReport is a single weather provider's contribution: current
// conditions plus an air quality reading when the provider supplies one.
type WeatherReport struct {
	Weather WeatherSignal
	Air     *AirQualityReading // nil when the provider has no air data
}

// WeatherProvider abstracts a weather/air-quality data source
// (e.g. OpenWeatherMap, Open-Meteo, WeatherAPI.com).
type WeatherProvider interface {
	Name() string
	Current(ctx context.Context, loc Location) (WeatherReport, error)
}

// CrimeProvider abstracts a crime-risk data source. The current
// implementation is simulated, but the contract is defined as if it performs
// I/O so a real municipal feed can be swapped in without touching the
// aggregator.
type CrimeProvider interface {
	Name() string
	Assess(ctx context.Context, loc Location, at time.Time) (CrimeSignal, error)
}

// TourismProvider abstracts a tourist-activity data source. Same swap-in
// discipline as CrimeProvider.
type TourismProvider interface {
	Name() string
	Estimate(ctx context.Context, city string, at time.Time) (TourismSignal, error)
}
