package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Jotthecode/city-pulse/internal/pulse"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCrimeRiskDayNight(t *testing.T) {
	sim := NewCrimeSimulator()

	tests := []struct {
		hour int
		want float64
	}{
		{23, 0.3 * 1.2},
		{2, 0.3 * 1.2},
		{20, 0.3 * 1.2},
		{6, 0.3 * 1.2}, // hour 6 still counts as night
		{7, 0.3 * 0.8},
		{12, 0.3 * 0.8},
		{19, 0.3 * 0.8},
	}

	for _, tt := range tests {
		at := time.Date(2026, time.March, 4, tt.hour, 30, 0, 0, time.UTC)
		signal, err := sim.Assess(context.Background(), pulse.Location{}, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(signal.RiskLevel, tt.want) {
			t.Errorf("hour %d: risk = %v, want %v", tt.hour, signal.RiskLevel, tt.want)
		}
		if signal.RiskLevel < 0 || signal.RiskLevel > 1 {
			t.Errorf("hour %d: risk %v out of [0,1]", tt.hour, signal.RiskLevel)
		}
	}
}

func TestCrimeSignalMetadata(t *testing.T) {
	sim := NewCrimeSimulator()
	signal, err := sim.Assess(context.Background(), pulse.Location{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Incidents24h != 3 {
		t.Errorf("incidents = %d, want 3", signal.Incidents24h)
	}
	if signal.Trend != "stable" {
		t.Errorf("trend = %s, want stable", signal.Trend)
	}
}

func TestTourismActivityMultipliers(t *testing.T) {
	sim := NewTourismSimulator()

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{
			// July afternoon on a Wednesday: 0.6*1.5*1.0*1.4 = 1.26, capped.
			name: "summer afternoon capped",
			at:   time.Date(2026, time.July, 15, 14, 0, 0, 0, time.UTC),
			want: 1.0,
		},
		{
			// January late night on a Monday: 0.6*0.6*1.0*0.3.
			name: "winter late night",
			at:   time.Date(2026, time.January, 5, 3, 0, 0, 0, time.UTC),
			want: 0.6 * 0.6 * 1.0 * 0.3,
		},
		{
			// October Saturday morning: 0.6*1.0*1.3*1.1.
			name: "autumn weekend morning",
			at:   time.Date(2026, time.October, 10, 10, 0, 0, 0, time.UTC),
			want: 0.6 * 1.0 * 1.3 * 1.1,
		},
		{
			// April Tuesday evening: 0.6*1.1*1.0*1.2.
			name: "spring weekday evening",
			at:   time.Date(2026, time.April, 14, 18, 0, 0, 0, time.UTC),
			want: 0.6 * 1.1 * 1.0 * 1.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, err := sim.Estimate(context.Background(), "Paris", tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(signal.ActivityLevel, tt.want) {
				t.Fatalf("activity = %v, want %v", signal.ActivityLevel, tt.want)
			}
			if signal.ActivityLevel < 0 || signal.ActivityLevel > 1 {
				t.Fatalf("activity %v out of [0,1]", signal.ActivityLevel)
			}
		})
	}
}

func TestTourismSeasonalTrend(t *testing.T) {
	sim := NewTourismSimulator()

	july, _ := sim.Estimate(context.Background(), "Paris", time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC))
	if july.SeasonalTrend != "high" {
		t.Errorf("july trend = %s, want high", july.SeasonalTrend)
	}

	october, _ := sim.Estimate(context.Background(), "Paris", time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC))
	if october.SeasonalTrend != "medium" {
		t.Errorf("october trend = %s, want medium", october.SeasonalTrend)
	}

	january, _ := sim.Estimate(context.Background(), "Paris", time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC))
	if january.SeasonalTrend != "low" {
		t.Errorf("january trend = %s, want low", january.SeasonalTrend)
	}
}

func TestTourismHotspotsScaleWithActivity(t *testing.T) {
	sim := NewTourismSimulator()
	signal, err := sim.Estimate(context.Background(), "Paris", time.Date(2026, time.July, 15, 14, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.HotspotsActive != int(signal.ActivityLevel*15) {
		t.Errorf("hotspots = %d, want %d", signal.HotspotsActive, int(signal.ActivityLevel*15))
	}
}
