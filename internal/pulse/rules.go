package pulse

// Pulse colors keyed by AQI bucket.
const (
	ColorGood     = "#00ff7f" // AQI <= 2
	ColorModerate = "#ffff00" // AQI == 3
	ColorPoor     = "#ff7e00" // AQI == 4
	ColorSevere   = "#ff0000" // AQI >= 5
)

// Derivation weights. Exported so a real crime/tourism feed can retune them
// without touching the rule functions.
var (
	BaseIntensity       = 0.7
	RiskIntensityWeight = 0.5
	WindSpeedDivisor    = 50.0
	ExtremeTempFactor   = 1.3
	ExtremeHotC         = 35.0
	ExtremeColdC        = -10.0
	MaxSpeed            = 3.0

	BaseSize   = 100.0
	SizeFloor  = 0.8
	SizeSpread = 0.4

	BaseGlow           = 0.5
	LowVisibilityBoost = 0.3
	LowVisibilityKm    = 5.0
	HeavyCloudPenalty  = 0.2
	HeavyCloudPct      = 80.0
	MinGlow            = 0.1
	MaxGlow            = 1.0
)

// ConditionProfile is the per-condition base speed and default pattern.
type ConditionProfile struct {
	Speed   float64
	Pattern Pattern
}

// ConditionProfiles maps each weather condition to its profile. Conditions
// not present here fall back to defaultProfile.
var ConditionProfiles = map[Condition]ConditionProfile{
	ConditionClear:        {Speed: 0.8, Pattern: PatternCalm},
	ConditionClouds:       {Speed: 1.0, Pattern: PatternNormal},
	ConditionRain:         {Speed: 1.5, Pattern: PatternErratic},
	ConditionThunderstorm: {Speed: 2.0, Pattern: PatternIntense},
	ConditionSnow:         {Speed: 0.6, Pattern: PatternCalm},
	ConditionMist:         {Speed: 0.9, Pattern: PatternNormal},
	ConditionFog:          {Speed: 0.7, Pattern: PatternCalm},
}

var defaultProfile = ConditionProfile{Speed: 1.0, Pattern: PatternNormal}

// Derive computes the pulse state from the three signal records. Every rule
// is applied independently; none reads another rule's output. The function is
// total: all inputs carry guaranteed defaults from their fetchers, so it can
// never fail for a resolved location.
func Derive(w WeatherSignal, air AirQualityReading, crime CrimeSignal, tourism TourismSignal) PulseState {
	profile, ok := ConditionProfiles[w.Main]
	if !ok {
		profile = defaultProfile
	}

	return PulseState{
		Color:     colorForAQI(air.AQI),
		Speed:     speedFor(w, profile),
		Intensity: intensityFor(crime),
		Pattern:   patternFor(w.Main, profile, crime),
		Size:      sizeFor(tourism),
		Glow:      glowFor(w),
	}
}

func colorForAQI(aqi int) string {
	switch {
	case aqi <= 2:
		return ColorGood
	case aqi == 3:
		return ColorModerate
	case aqi == 4:
		return ColorPoor
	default:
		return ColorSevere
	}
}

// speedFor scales the condition base speed by wind and temperature extremes.
// Capped at MaxSpeed; no minimum clamp, the factors stay positive.
func speedFor(w WeatherSignal, profile ConditionProfile) float64 {
	speed := profile.Speed
	speed *= 1 + w.WindSpeed/WindSpeedDivisor
	if w.Temperature > ExtremeHotC || w.Temperature < ExtremeColdC {
		speed *= ExtremeTempFactor
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	return speed
}

func intensityFor(crime CrimeSignal) float64 {
	intensity := BaseIntensity * (1 + crime.RiskLevel*RiskIntensityWeight)
	if intensity > 1.0 {
		intensity = 1.0
	}
	return intensity
}

// patternFor applies the priority-ordered pattern decision. The order is
// load-bearing: clear weather with risk in [0.3, 0.7] must fall through to
// the condition's default pattern, not to "calm".
func patternFor(cond Condition, profile ConditionProfile, crime CrimeSignal) Pattern {
	switch {
	case cond == ConditionThunderstorm || cond == ConditionTornado:
		return PatternIntense
	case crime.RiskLevel > 0.7:
		return PatternErratic
	case (cond == ConditionClear || cond == ConditionSnow) && crime.RiskLevel < 0.3:
		return PatternCalm
	default:
		return profile.Pattern
	}
}

// sizeFor maps activity 0..1 onto 80..120 pixels.
func sizeFor(tourism TourismSignal) int {
	return int(BaseSize * (SizeFloor + tourism.ActivityLevel*SizeSpread))
}

func glowFor(w WeatherSignal) float64 {
	glow := BaseGlow
	if w.Visibility < LowVisibilityKm {
		glow += LowVisibilityBoost
	}
	if w.Clouds > HeavyCloudPct {
		glow -= HeavyCloudPenalty
	}
	if glow > MaxGlow {
		glow = MaxGlow
	}
	if glow < MinGlow {
		glow = MinGlow
	}
	return glow
}
