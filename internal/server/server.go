package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/metrics"
	"github.com/relawanhub/relawan/internal/telemetry"
)

const (
	shutdownGrace = 10 * time.Second
	locateTimeout = 15 * time.Second
)

// Geocoder resolves free-form addresses.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (domain.Place, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies wires the HTTP service.
type Dependencies struct {
	Settings config.Settings
	// Location is optional; /v1/locate answers 503 without it.
	Location Geocoder
	// Cache is the geocoder cache checked by /v1/ready, if one is configured.
	Cache   Pinger
	Logger  *slog.Logger
	Version string
}

// New builds the fiber app with middleware and routes installed.
func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(deps.Settings.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(deps.Settings.Server.WriteTimeout) * time.Second,
		BodyLimit:             64 * 1024,
		AppName:               "relawan",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Settings.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers middleware and the v1 API.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(telemetry.Middleware())
	app.Use(RequestLoggerMiddleware(logger))
	app.Use(AccessLogMiddleware())
	if deps.Settings.Server.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.Settings.Server.RateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "RELAWAN_RATE_LIMITED", "too many requests, please try again later")
			},
		}))
	}
	app.Use(securityHeaders())

	h := &handlers{deps: deps, startedAt: time.Now()}
	v1 := app.Group("/v1")
	v1.Get("/health", h.health)
	v1.Get("/ready", h.ready)
	v1.Post("/maplink/parse", h.parseMapLink)
	v1.Get("/locate", timeout.NewWithContext(h.locate, locateTimeout))
	v1.Get("/achievements/:track/tiers", h.tiers)
	v1.Get("/achievements/:track/classify", h.classify)
	v1.Get("/achievements/:track/progress", h.progress)
	v1.Get("/achievements/:track/level-up", h.levelUp)
}

// Run serves app on addr until ctx is cancelled, then drains in-flight
// requests for up to 10s.
func Run(ctx context.Context, app *fiber.App, addr string) error {
	logger := slog.Default()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
