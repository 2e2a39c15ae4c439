package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-widget/internal/weather/providers"
	"github.com/i474232898/weather-widget/internal/widget"
)

// Provider backends selectable with WEATHER_PROVIDER.
const (
	ProviderHTTP       = "http"
	ProviderSDK        = "owm-sdk"
	ProviderWeatherAPI = "weatherapi"
)

type AppConfig struct {
	// Weather API root and credential. Missing values make every fetch fail.
	APIEndpoint string
	APIKey      string
	Provider    string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// Search cool-down.
	SearchCooldown  time.Duration
	SearchCacheMode widget.CacheMode

	// Widget session retention.
	WidgetIdleTTL   time.Duration // idle widgets older than this are unmounted (0 = never)
	WidgetMax       int           // max mounted widgets (0 = unlimited)
	JanitorInterval time.Duration

	// Optional home address used when the device gives no position.
	GeocoderAPIKey string
	HomeCity       string
	HomeCountry    string

	Port string
}

// Load reads configuration from the environment (and .env) with sensible defaults.
func Load() (*AppConfig, error) {
	_ = godotenv.Load() // a missing .env is fine

	cfg := &AppConfig{}

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderHTTP))
	switch cfg.Provider {
	case ProviderHTTP, ProviderSDK:
		cfg.APIEndpoint = getenvDefault("WEATHER_API_ENDPOINT", providers.DefaultOpenWeatherEndpoint)
	case ProviderWeatherAPI:
		cfg.APIEndpoint = getenvDefault("WEATHER_API_ENDPOINT", providers.DefaultWeatherAPIEndpoint)
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q: want %q, %q or %q", cfg.Provider, ProviderHTTP, ProviderSDK, ProviderWeatherAPI)
	}
	cfg.APIKey = os.Getenv("WEATHER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.SearchCooldown, err = getenvDuration("SEARCH_COOLDOWN", "60s"); err != nil {
		return nil, err
	}
	if cfg.SearchCacheMode, err = widget.ParseCacheMode(os.Getenv("SEARCH_CACHE_MODE")); err != nil {
		return nil, fmt.Errorf("invalid SEARCH_CACHE_MODE: %w", err)
	}
	if cfg.WidgetIdleTTL, err = getenvDuration("WIDGET_IDLE_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getenvDuration("JANITOR_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	cfg.WidgetMax = getenvInt("WIDGET_MAX", 1000)

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.HomeCity = os.Getenv("HOME_CITY")
	cfg.HomeCountry = os.Getenv("HOME_COUNTRY")

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// WidgetOptions returns the controller options derived from the config.
func (c *AppConfig) WidgetOptions() widget.Options {
	return widget.Options{
		Cooldown:  c.SearchCooldown,
		CacheMode: c.SearchCacheMode,
	}
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
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
