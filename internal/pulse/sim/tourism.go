package sim

import (
	"context"
	"time"

	"github.com/Jotthecode/city-pulse/internal/pulse"
)

// Tourism simulation constants.
var (
	BaseActivity      = 0.6
	WeekendMultiplier = 1.3
)

// SeasonalMultipliers adjusts activity by calendar month.
var SeasonalMultipliers = map[time.Month]float64{
	time.January:   0.6,
	time.February:  0.7,
	time.March:     0.9,
	time.April:     1.1,
	time.May:       1.2,
	time.June:      1.4,
	time.July:      1.5,
	time.August:    1.3,
	time.September: 1.1,
	time.October:   1.0,
	time.November:  0.9,
	time.December:  0.8,
}

// DayPart is a half-open hour range [From, To) with its activity multiplier.
type DayPart struct {
	From, To   int
	Multiplier float64
}

// DayParts covers the full day; hours outside any range keep multiplier 1.0.
var DayParts = []DayPart{
	{From: 6, To: 9, Multiplier: 0.7},   // early morning
	{From: 9, To: 12, Multiplier: 1.1},  // morning
	{From: 12, To: 17, Multiplier: 1.4}, // afternoon
	{From: 17, To: 21, Multiplier: 1.2}, // evening
	{From: 21, To: 24, Multiplier: 0.9}, // night
	{From: 0, To: 6, Multiplier: 0.3},   // late night
}

// PeakHours is the fixed set reported alongside the activity level.
var PeakHours = []int{10, 11, 14, 15, 16}

// TourismSimulator derives a tourist-activity signal from the season,
// weekday, and hour of day.
type TourismSimulator struct{}

// NewTourismSimulator creates a TourismSimulator.
func NewTourismSimulator() *TourismSimulator {
	return &TourismSimulator{}
}

func (s *TourismSimulator) Name() string {
	return "tourism-sim"
}

// Estimate computes the activity level at the given time: base activity times
// seasonal, weekend, and day-part multipliers, capped at 1.0.
func (s *TourismSimulator) Estimate(_ context.Context, _ string, at time.Time) (pulse.TourismSignal, error) {
	seasonal, ok := SeasonalMultipliers[at.Month()]
	if !ok {
		seasonal = 1.0
	}

	weekend := 1.0
	if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = WeekendMultiplier
	}

	hourly := 1.0
	for _, part := range DayParts {
		if at.Hour() >= part.From && at.Hour() < part.To {
			hourly = part.Multiplier
			break
		}
	}

	activity := BaseActivity * seasonal * weekend * hourly
	if activity > 1.0 {
		activity = 1.0
	}

	trend := "low"
	switch {
	case seasonal > 1.2:
		trend = "high"
	case seasonal > 0.8:
		trend = "medium"
	}

	return pulse.TourismSignal{
		ActivityLevel:  activity,
		HotspotsActive: int(activity * 15),
		PeakHours:      PeakHours,
		SeasonalTrend:  trend,
	}, nil
}
