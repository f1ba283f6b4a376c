package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/Jotthecode/city-pulse/internal/api/http"
	"github.com/Jotthecode/city-pulse/internal/cache"
	"github.com/Jotthecode/city-pulse/internal/chat"
	"github.com/Jotthecode/city-pulse/internal/config"
	"github.com/Jotthecode/city-pulse/internal/geocode"
	"github.com/Jotthecode/city-pulse/internal/providers"
	"github.com/Jotthecode/city-pulse/internal/pulse"
	"github.com/Jotthecode/city-pulse/internal/pulse/sim"
	"github.com/Jotthecode/city-pulse/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Weather chain: OpenWeatherMap when a key is configured, Open-Meteo as
	// the keyless fallback, WeatherAPI merged in when its key is configured.
	var weatherChain []pulse.WeatherProvider
	if cfg.OpenWeatherAPIKey != "" {
		weatherChain = append(weatherChain, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	weatherChain = append(weatherChain, providers.NewOpenMeteoProvider(httpClient))

	var secondary pulse.WeatherProvider
	if cfg.WeatherAPIKey != "" {
		secondary = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey)
	}

	// Pulse snapshot cache: Redis when configured, in-process otherwise.
	var snapshots cache.Cache[pulse.CitySnapshot]
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		snapshots = cache.NewRedis[pulse.CitySnapshot](client, "pulse", cfg.PulseTTL)
	} else {
		snapshots = cache.NewMemory[pulse.CitySnapshot](cfg.PulseTTL, nil)
	}

	service := pulse.NewService(pulse.Options{
		WeatherChain: weatherChain,
		Secondary:    secondary,
		Crime:        sim.NewCrimeSimulator(),
		Tourism:      sim.NewTourismSimulator(),
		Snapshots:    snapshots,
		FetchTimeout: cfg.FetchTimeout,
	})

	resolver := geocode.New(httpClient, cfg.OpenWeatherAPIKey, cfg.GoogleGeocodingKey)

	deps := httpapi.Deps{
		Pulse:    service,
		Resolver: resolver,
		Nearby:   providers.NewNominatimProvider(httpClient),
		Trends:   providers.NewGoogleTrendsProvider(httpClient),
	}
	if cfg.NewsAPIKey != "" {
		deps.News = providers.NewNewsAPIProvider(httpClient, cfg.NewsAPIKey)
	}
	if cfg.GooglePlacesAPIKey != "" {
		deps.Places = providers.NewGooglePlacesProvider(httpClient, cfg.GooglePlacesAPIKey)
	}
	if cfg.VisualCrossingAPIKey != "" {
		deps.Climate = providers.NewVisualCrossingProvider(httpClient, cfg.VisualCrossingAPIKey)
	}
	if cfg.GoogleSearchAPIKey != "" && cfg.GoogleSearchEngineID != "" {
		searcher := providers.NewCustomSearchProvider(httpClient, cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID)
		deps.Chat = chat.NewManager(searcher, cfg.ChatMaxHistory)
	}

	// Background cache warming for configured cities.
	sched := scheduler.New(cfg.Cities, cfg.RefreshInterval, service, resolver)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "city-pulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "city-pulse",
		})
	})

	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
