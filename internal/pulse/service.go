package pulse

import (
	"context"
	"log"
	"time"

	"github.com/Jotthecode/city-pulse/internal/cache"
)

// Service orchestrates the three concurrent signal fetches and derives the
// pulse state. Fetch failures are absorbed here: each signal degrades to its
// documented default, so ComputePulse is total for any resolved location.
type Service struct {
	weatherChain []WeatherProvider // tried in priority order, first success wins
	secondary    WeatherProvider   // optional; merged into the winning report
	crime        CrimeProvider
	tourism      TourismProvider

	snapshots    cache.Cache[CitySnapshot]
	fetchTimeout time.Duration
	now          func() time.Time
}

// Options configures a Service.
type Options struct {
	// WeatherChain is tried in order until one provider succeeds.
	WeatherChain []WeatherProvider
	// Secondary, when set, is fetched after the chain and merged into the
	// winning report to fill fields the winner lacked.
	Secondary WeatherProvider
	Crime     CrimeProvider
	Tourism   TourismProvider
	// Snapshots memoizes ComputePulse results per city for a short TTL.
	Snapshots cache.Cache[CitySnapshot]
	// FetchTimeout bounds each individual signal fetch.
	FetchTimeout time.Duration
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		weatherChain: opts.WeatherChain,
		secondary:    opts.Secondary,
		crime:        opts.Crime,
		tourism:      opts.Tourism,
		snapshots:    opts.Snapshots,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
	}
}

// ComputePulse returns the pulse snapshot for a resolved location, serving a
// cached value when one exists within the TTL window. This is the only entry
// point the presentation layer needs.
func (s *Service) ComputePulse(ctx context.Context, loc Location) (CitySnapshot, error) {
	if s.snapshots == nil {
		return s.computePulse(ctx, loc)
	}
	return s.snapshots.GetOrCompute(ctx, loc.Key(), func(ctx context.Context) (CitySnapshot, error) {
		return s.computePulse(ctx, loc)
	})
}

// computePulse fans out the three signal fetches, joins on all of them, and
// derives the pulse. No partial snapshot is ever exposed: either all three
// slots are filled (with fetched or default records) or the context error is
// returned.
func (s *Service) computePulse(ctx context.Context, loc Location) (CitySnapshot, error) {
	var (
		weather WeatherSignal
		air     AirQualityReading
		crime   CrimeSignal
		tourism TourismSignal
	)

	done := make(chan struct{}, 3)

	go func() {
		defer func() { done <- struct{}{} }()
		weather, air = s.fetchWeather(ctx, loc)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		crime = s.fetchCrime(ctx, loc)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		tourism = s.fetchTourism(ctx, loc)
	}()

	// Join on all three fetches; a failed fetch already substituted its
	// default, so the join never propagates failure.
	for i := 0; i < 3; i++ {
		<-done
	}

	if err := ctx.Err(); err != nil {
		return CitySnapshot{}, err
	}

	return CitySnapshot{
		Location:  loc,
		Timestamp: s.now().UTC(),
		Weather:   weather,
		Air:       air,
		Crime:     crime,
		Tourism:   tourism,
		Pulse:     Derive(weather, air, crime, tourism),
	}, nil
}

// Weather fetches the current weather and air quality for a location,
// degrading to defaults on total provider failure. Exposed for the raw
// weather and air quality display tabs.
func (s *Service) Weather(ctx context.Context, loc Location) (WeatherSignal, AirQualityReading) {
	return s.fetchWeather(ctx, loc)
}

// Crime returns the crime signal for a location. Exposed for display tabs.
func (s *Service) Crime(ctx context.Context, loc Location) CrimeSignal {
	return s.fetchCrime(ctx, loc)
}

// Tourism returns the tourism signal for a city. Exposed for display tabs.
func (s *Service) Tourism(ctx context.Context, loc Location) TourismSignal {
	return s.fetchTourism(ctx, loc)
}

// fetchWeather walks the provider chain until one succeeds, then optionally
// merges the secondary provider's report. Every provider call is a single
// attempt bounded by the fetch timeout.
func (s *Service) fetchWeather(ctx context.Context, loc Location) (WeatherSignal, AirQualityReading) {
	var report *WeatherReport

	for _, p := range s.weatherChain {
		fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		r, err := p.Current(fctx, loc)
		cancel()
		if err != nil {
			log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
			continue
		}
		report = &r
		break
	}

	if report == nil {
		log.Printf("all weather providers failed for %s; using default signal", loc.Key())
		return DefaultWeatherSignal(), DefaultAirQualityReading()
	}

	if s.secondary != nil {
		fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		sec, err := s.secondary.Current(fctx, loc)
		cancel()
		if err != nil {
			log.Printf("provider %s merge fetch failed for %s: %v", s.secondary.Name(), loc.Key(), err)
		} else {
			mergeReport(report, sec)
		}
	}

	air := DefaultAirQualityReading()
	if report.Air != nil && report.Air.AQI >= 1 {
		air = *report.Air
	}
	return report.Weather, air
}

// mergeReport fills gaps in the primary report from a secondary provider's
// data without overwriting fields the primary already supplied.
func mergeReport(primary *WeatherReport, secondary WeatherReport) {
	if primary.Air == nil && secondary.Air != nil {
		primary.Air = secondary.Air
	} else if primary.Air != nil && secondary.Air != nil {
		for key, value := range secondary.Air.Components {
			if _, ok := primary.Air.Components[key]; !ok {
				if primary.Air.Components == nil {
					primary.Air.Components = make(map[string]float64)
				}
				primary.Air.Components[key] = value
			}
		}
	}
	if primary.Weather.UVIndex == 0 {
		primary.Weather.UVIndex = secondary.Weather.UVIndex
	}
	if primary.Weather.Description == "" {
		primary.Weather.Description = secondary.Weather.Description
	}
}

func (s *Service) fetchCrime(ctx context.Context, loc Location) CrimeSignal {
	if s.crime == nil {
		return DefaultCrimeSignal()
	}
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	signal, err := s.crime.Assess(fctx, loc, s.now())
	if err != nil {
		log.Printf("provider %s fetch failed for %s: %v", s.crime.Name(), loc.Key(), err)
		return DefaultCrimeSignal()
	}
	return signal
}

func (s *Service) fetchTourism(ctx context.Context, loc Location) TourismSignal {
	if s.tourism == nil {
		return DefaultTourismSignal()
	}
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	signal, err := s.tourism.Estimate(fctx, loc.City, s.now())
	if err != nil {
		log.Printf("provider %s fetch failed for %s: %v", s.tourism.Name(), loc.Key(), err)
		return DefaultTourismSignal()
	}
	return signal
}
