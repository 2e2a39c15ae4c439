package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/geo"
	"github.com/i474232898/weather-widget/internal/present"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

type showOptions struct {
	lat, lon float64
	city     string
	expanded bool
	output   string
}

func newShowCmd(debug *bool) *cobra.Command {
	var opts showOptions

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render one widget in the terminal",
		Example: `  weather-widget show --lat 48.85 --lon 2.35
  weather-widget show --city Paris --expanded
  weather-widget show --city Paris -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lat") != cmd.Flags().Changed("lon") {
				return errors.New("--lat and --lon must be given together")
			}
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("unknown output format %q", opts.output)
			}

			log, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			device := geo.NewDevicePosition()
			if cmd.Flags().Changed("lat") {
				coords := weather.Coordinates{Lat: opts.lat, Lon: opts.lon}
				if err := validator.New().Struct(coords); err != nil {
					return fmt.Errorf("invalid coordinates: %w", err)
				}
				device.Report(coords)
			}

			return show(cmd.Context(), cmd.OutOrStdout(), cfg, log, device, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Device latitude")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "Device longitude")
	cmd.Flags().StringVarP(&opts.city, "city", "c", "", "Search for a city instead of using the device location")
	cmd.Flags().BoolVarP(&opts.expanded, "expanded", "e", false, "Render the expanded view")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json)")

	return cmd
}

func show(ctx context.Context, out io.Writer, cfg *config.AppConfig, log *zap.Logger, device *geo.DevicePosition, opts showOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctrl := widget.NewController(newProvider(cfg, log), geo.Fallback(device, homeLocator(cfg, log)), log, cfg.WidgetOptions())

	if opts.city != "" {
		ctrl.SetUseDeviceLocation(ctx, false)
		ctrl.SetSearchQuery(opts.city)
		ctrl.SubmitSearch(ctx)
	} else {
		ctrl.Mount(ctx)
	}
	state := ctrl.SetCompact(!opts.expanded)

	plan := present.Build(state)
	if opts.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return err
		}
	} else if err := present.WriteText(out, plan); err != nil {
		return err
	}

	if state.CurrentSnapshot == nil && state.LastError != "" {
		return errors.New(state.LastError)
	}
	return nil
}
