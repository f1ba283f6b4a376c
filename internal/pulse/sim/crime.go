// Package sim holds the statistically simulated crime and tourism providers.
// Both stand in for real data feeds behind the same provider contracts the
// aggregator uses for networked sources; the constants are exported so a
// future feed can replace or retune them without touching derivation.
package sim

import (
	"context"
	"time"

	"github.com/Jotthecode/city-pulse/internal/pulse"
)

// Crime simulation constants.
var (
	BaseCrimeRisk       = 0.3
	NightRiskMultiplier = 1.2 // applies from 20:00 through 06:00 inclusive
	DayRiskMultiplier   = 0.8
)

// CrimeCategoryShares is the fixed split reported alongside the risk level.
var CrimeCategoryShares = map[string]float64{
	"theft":     0.4,
	"assault":   0.2,
	"vandalism": 0.3,
	"other":     0.1,
}

// CrimeSimulator derives a crime-risk signal from the time of day. The
// coordinates are accepted for contract parity with a real provider but do
// not influence the simulation.
type CrimeSimulator struct{}

// NewCrimeSimulator creates a CrimeSimulator.
func NewCrimeSimulator() *CrimeSimulator {
	return &CrimeSimulator{}
}

func (s *CrimeSimulator) Name() string {
	return "crime-sim"
}

// Assess computes the risk level at the given time: base risk times a
// day/night multiplier, capped at 1.0. Hour 6 itself still counts as night,
// matching the historical behavior of the feed this simulates.
func (s *CrimeSimulator) Assess(_ context.Context, _ pulse.Location, at time.Time) (pulse.CrimeSignal, error) {
	hour := at.Hour()

	multiplier := DayRiskMultiplier
	if hour >= 20 || hour <= 6 {
		multiplier = NightRiskMultiplier
	}

	risk := BaseCrimeRisk * multiplier
	if risk > 1.0 {
		risk = 1.0
	}

	return pulse.CrimeSignal{
		RiskLevel:    risk,
		Incidents24h: int(BaseCrimeRisk * 10),
		Trend:        "stable",
		Categories:   CrimeCategoryShares,
	}, nil
}
