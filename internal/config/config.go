package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration, sourced from the environment.
type AppConfig struct {
	// Upstream API keys. Only OPENWEATHER_API_KEY is needed for the core
	// pulse path; everything else degrades gracefully when absent.
	OpenWeatherAPIKey    string
	WeatherAPIKey        string
	NewsAPIKey           string
	GooglePlacesAPIKey   string
	GoogleSearchAPIKey   string
	GoogleSearchEngineID string
	GoogleGeocodingKey   string
	VisualCrossingAPIKey string

	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration
	// FetchTimeout bounds each of the three pulse signal fetches.
	FetchTimeout time.Duration

	// PulseTTL is how long a computed pulse snapshot stays cached per city.
	PulseTTL time.Duration

	// RefreshInterval controls the background cache-warming job.
	RefreshInterval time.Duration
	// Cities to warm; the job is disabled when empty.
	Cities []string

	// RedisAddr, when set, switches the pulse cache to Redis.
	RedisAddr     string
	RedisPassword string

	ChatMaxHistory int

	Port string
}

// Load reads configuration from environment with sensible defaults.
// Malformed values abort startup; they must never surface per-request.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:        os.Getenv("WEATHERAPI_API_KEY"),
		NewsAPIKey:           os.Getenv("NEWS_API_KEY"),
		GooglePlacesAPIKey:   os.Getenv("GOOGLE_PLACES_API_KEY"),
		GoogleSearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchEngineID: os.Getenv("GOOGLE_SEARCH_CX"),
		GoogleGeocodingKey:   os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		VisualCrossingAPIKey: os.Getenv("VISUALCROSSING_API_KEY"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		Port:                 getenvDefault("PORT", "8080"),
		ChatMaxHistory:       getenvInt("CHAT_MAX_HISTORY", 50),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.PulseTTL, err = getenvDuration("PULSE_CACHE_TTL", "3m"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	if cities := os.Getenv("PULSE_CITIES"); cities != "" {
		for _, city := range strings.Split(cities, ",") {
			if city = strings.TrimSpace(city); city != "" {
				cfg.Cities = append(cfg.Cities, city)
			}
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
