package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/geo"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/weather/providers"
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "weather-widget",
		Short:         "Current weather widget",
		Long:          "Serves weather widget sessions over HTTP or renders a single widget in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose development logging")

	rootCmd.AddCommand(newServeCmd(&debug), newShowCmd(&debug))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newProvider builds the weather backend selected by WEATHER_PROVIDER.
func newProvider(cfg *config.AppConfig, logger *zap.Logger) weather.Provider {
	if cfg.APIKey == "" {
		logger.Warn("WEATHER_API_KEY is not set; every fetch will fail")
	}

	// Shared HTTP client for outbound provider calls.
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	switch cfg.Provider {
	case config.ProviderSDK:
		return providers.NewSDKProvider(client, cfg.APIKey)
	case config.ProviderWeatherAPI:
		return providers.NewWeatherAPIProvider(client, cfg.APIEndpoint, cfg.APIKey)
	default:
		return providers.NewOpenWeatherProvider(client, cfg.APIEndpoint, cfg.APIKey)
	}
}

// homeLocator returns the configured home address, or nil when none is set.
func homeLocator(cfg *config.AppConfig, logger *zap.Logger) geo.Locator {
	l := geo.NewAddressLocator(cfg.GeocoderAPIKey, cfg.HomeCity, cfg.HomeCountry)
	if l == nil {
		return nil
	}
	logger.Info("home address fallback enabled", zap.Stringer("home", l))
	return l
}
