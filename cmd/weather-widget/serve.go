package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-widget/internal/api/http"
	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/scheduler"
	"github.com/i474232898/weather-widget/internal/store"
	"github.com/i474232898/weather-widget/internal/widget"
)

func newServeCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the widget HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cfg, log)
		},
	}
}

func serve(cfg *config.AppConfig, log *zap.Logger) error {
	provider := newProvider(cfg, log)

	// In-memory widget sessions with configured retention.
	memStore := store.NewMemoryStore(cfg.WidgetMax, cfg.WidgetIdleTTL)
	service := widget.NewService(memStore, provider, homeLocator(cfg, log), cfg.WidgetOptions(), log)

	// Janitor that unmounts widgets whose clients went away.
	janitor := scheduler.New(cfg.JanitorInterval, service, log.Named("janitor"))
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("failed to start janitor: %w", err)
	}
	defer janitor.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-widget",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-widget",
			"provider": provider.Name(),
			"widgets":  memStore.Len(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("provider", provider.Name()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
