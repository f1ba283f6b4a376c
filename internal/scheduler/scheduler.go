package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Jotthecode/city-pulse/internal/geocode"
	"github.com/Jotthecode/city-pulse/internal/pulse"
)

// Scheduler periodically recomputes the pulse for configured cities so the
// cache stays warm and a page load never pays the full fan-out latency.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *pulse.Service
	resolver  *geocode.Geocoder
	cities    []string
	interval  time.Duration
}

// New creates a Scheduler.
func New(cities []string, interval time.Duration, service *pulse.Service, resolver *geocode.Geocoder) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		resolver:  resolver,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running pulse refresh job")

		var wg sync.WaitGroup
		for _, city := range s.cities {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				loc, err := s.resolver.Resolve(ctx, city)
				if err != nil {
					log.Printf("scheduler: resolve failed for %s: %v", city, err)
					return
				}
				if _, err := s.service.ComputePulse(ctx, loc); err != nil {
					log.Printf("scheduler: pulse refresh failed for %s: %v", city, err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed pulse refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
