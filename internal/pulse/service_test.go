package pulse

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jotthecode/city-pulse/internal/cache"
)

type stubWeatherProvider struct {
	name   string
	report WeatherReport
	err    error
	calls  atomic.Int32
}

func (p *stubWeatherProvider) Name() string { return p.name }

func (p *stubWeatherProvider) Current(ctx context.Context, loc Location) (WeatherReport, error) {
	p.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return WeatherReport{}, err
	}
	return p.report, p.err
}

type stubCrimeProvider struct {
	signal CrimeSignal
	err    error
}

func (p *stubCrimeProvider) Name() string { return "crime-stub" }

func (p *stubCrimeProvider) Assess(ctx context.Context, loc Location, at time.Time) (CrimeSignal, error) {
	return p.signal, p.err
}

type stubTourismProvider struct {
	signal TourismSignal
	err    error
}

func (p *stubTourismProvider) Name() string { return "tourism-stub" }

func (p *stubTourismProvider) Estimate(ctx context.Context, city string, at time.Time) (TourismSignal, error) {
	return p.signal, p.err
}

var testLoc = Location{City: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522}

func TestComputePulseJoinsAllSignals(t *testing.T) {
	weather := &stubWeatherProvider{
		name: "primary",
		report: WeatherReport{
			Weather: WeatherSignal{Main: ConditionClear, Temperature: 20, Visibility: 10, Clouds: 10},
			Air:     &AirQualityReading{AQI: 1},
		},
	}
	svc := NewService(Options{
		WeatherChain: []WeatherProvider{weather},
		Crime:        &stubCrimeProvider{signal: CrimeSignal{RiskLevel: 0.1}},
		Tourism:      &stubTourismProvider{signal: TourismSignal{ActivityLevel: 0.6}},
	})

	snap, err := svc.ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Pulse.Color != ColorGood || snap.Pulse.Pattern != PatternCalm || snap.Pulse.Size != 104 {
		t.Fatalf("unexpected pulse: %+v", snap.Pulse)
	}
	if snap.Weather.Main != ConditionClear || snap.Air.AQI != 1 {
		t.Fatalf("raw records not exposed: %+v", snap)
	}
	if snap.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestComputePulseSubstitutesDefaultsOnFailure(t *testing.T) {
	failing := &stubWeatherProvider{name: "failing", err: errors.New("boom")}
	svc := NewService(Options{
		WeatherChain: []WeatherProvider{failing},
		Crime:        &stubCrimeProvider{err: errors.New("boom")},
		Tourism:      &stubTourismProvider{err: errors.New("boom")},
	})

	snap, err := svc.ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("aggregation must not propagate fetch failures: %v", err)
	}

	if snap.Weather != DefaultWeatherSignal() {
		t.Errorf("weather = %+v, want default", snap.Weather)
	}
	if snap.Air.AQI != DefaultAirQualityReading().AQI {
		t.Errorf("aqi = %d, want default %d", snap.Air.AQI, DefaultAirQualityReading().AQI)
	}
	if snap.Crime.RiskLevel != 0.3 {
		t.Errorf("risk = %v, want default 0.3", snap.Crime.RiskLevel)
	}
	if snap.Tourism.ActivityLevel != 0.6 {
		t.Errorf("activity = %v, want default 0.6", snap.Tourism.ActivityLevel)
	}
}

func TestWeatherChainFallsBack(t *testing.T) {
	failing := &stubWeatherProvider{name: "primary", err: errors.New("unavailable")}
	fallback := &stubWeatherProvider{
		name:   "fallback",
		report: WeatherReport{Weather: WeatherSignal{Main: ConditionRain, Visibility: 10}},
	}
	svc := NewService(Options{WeatherChain: []WeatherProvider{failing, fallback}})

	weather, air := svc.Weather(context.Background(), testLoc)
	if weather.Main != ConditionRain {
		t.Fatalf("weather = %+v, want fallback reading", weather)
	}
	// Fallback carries no air data, so the default reading is substituted.
	if air.AQI != 2 {
		t.Fatalf("aqi = %d, want default 2", air.AQI)
	}
	if failing.calls.Load() != 1 || fallback.calls.Load() != 1 {
		t.Fatalf("chain calls = %d/%d, want 1/1", failing.calls.Load(), fallback.calls.Load())
	}
}

func TestSecondaryMergeFillsGaps(t *testing.T) {
	primary := &stubWeatherProvider{
		name: "primary",
		report: WeatherReport{
			Weather: WeatherSignal{Main: ConditionClouds, Visibility: 10},
			Air:     &AirQualityReading{AQI: 3, Components: map[string]float64{PollutantPM25: 12}},
		},
	}
	secondary := &stubWeatherProvider{
		name: "secondary",
		report: WeatherReport{
			Weather: WeatherSignal{Main: ConditionClouds, UVIndex: 6, Visibility: 8},
			Air:     &AirQualityReading{AQI: 2, Components: map[string]float64{PollutantO3: 40, PollutantPM25: 99}},
		},
	}
	svc := NewService(Options{
		WeatherChain: []WeatherProvider{primary},
		Secondary:    secondary,
	})

	weather, air := svc.Weather(context.Background(), testLoc)
	if weather.UVIndex != 6 {
		t.Errorf("uv index not merged: %v", weather.UVIndex)
	}
	if air.AQI != 3 {
		t.Errorf("primary aqi overwritten: %d", air.AQI)
	}
	if air.Components[PollutantPM25] != 12 {
		t.Errorf("primary component overwritten: %v", air.Components[PollutantPM25])
	}
	if air.Components[PollutantO3] != 40 {
		t.Errorf("secondary component not merged: %v", air.Components[PollutantO3])
	}
}

func TestComputePulseReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(Options{
		WeatherChain: []WeatherProvider{&stubWeatherProvider{name: "p", err: errors.New("boom")}},
	})

	_, err := svc.ComputePulse(ctx, testLoc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestComputePulseUsesCacheWithinTTL(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	weather := &stubWeatherProvider{
		name:   "primary",
		report: WeatherReport{Weather: DefaultWeatherSignal()},
	}
	svc := NewService(Options{
		WeatherChain: []WeatherProvider{weather},
		Snapshots:    cache.NewMemory[CitySnapshot](time.Minute, clock),
		Now:          clock,
	})

	first, err := svc.ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if weather.calls.Load() != 1 {
		t.Fatalf("provider called %d times, want 1 (cached)", weather.calls.Load())
	}
	if first.Pulse != second.Pulse {
		t.Fatalf("cached pulse differs: %+v != %+v", first.Pulse, second.Pulse)
	}

	// Advance past the TTL; the next call recomputes.
	now = now.Add(2 * time.Minute)
	if _, err := svc.ComputePulse(context.Background(), testLoc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if weather.calls.Load() != 2 {
		t.Fatalf("provider called %d times after expiry, want 2", weather.calls.Load())
	}
}

func TestComputePulseIdempotentForFixedClock(t *testing.T) {
	fixed := time.Date(2026, time.July, 15, 14, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	weather := &stubWeatherProvider{
		name:   "primary",
		report: WeatherReport{Weather: DefaultWeatherSignal(), Air: &AirQualityReading{AQI: 1}},
	}
	newSvc := func() *Service {
		return NewService(Options{
			WeatherChain: []WeatherProvider{weather},
			Crime:        &stubCrimeProvider{signal: CrimeSignal{RiskLevel: 0.24}},
			Tourism:      &stubTourismProvider{signal: TourismSignal{ActivityLevel: 0.5}},
			Now:          clock,
		})
	}

	first, err := newSvc().ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newSvc().ComputePulse(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Pulse != second.Pulse || !first.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("identical inputs produced different snapshots: %+v != %+v", first, second)
	}
}
