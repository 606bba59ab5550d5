package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vendora/internal/config"
	"vendora/internal/events"
	"vendora/internal/http/handlers"
	applog "vendora/internal/log"
	"vendora/internal/metrics"
	"vendora/internal/repos"
	"vendora/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.Setup(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	met := metrics.New()

	// Lifecycle events are best effort: a missing broker downgrades to the
	// nop publisher instead of blocking startup.
	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.EventsQueue)
		if err != nil {
			applog.Error(nil, "events.dial", err, map[string]any{"queue": cfg.EventsQueue})
		} else {
			pub = p
		}
	}

	deps := handlers.NewDeps(db, cfg, pub, met)
	if n, err := deps.Ledger.ActiveCount(); err == nil {
		met.ActiveHolds.Set(float64(n))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals
			return c.Status(code).JSON(fiber.Map{"error": "something went wrong"})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Post("/reservations", deps.ReservationHandler.Create)
	api.Post("/reservations/cleanup", deps.ReservationHandler.Cleanup)
	api.Post("/reservations/:id/commit", deps.ReservationHandler.Commit)
	api.Post("/reservations/:id/release", deps.ReservationHandler.Release)
	api.Get("/availability", deps.InventoryHandler.Check)
	api.Post("/checkout", deps.OrderHandler.Place)
	api.Get("/orders/:id", deps.OrderHandler.View)

	// Health & metrics
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(met.Registry, promhttp.HandlerOpts{})))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// Expiry sweeper: reclaims abandoned holds so availability converges even
	// when nobody calls cleanup by hand.
	ctx, cancel := context.WithCancel(context.Background())
	sweeper := services.NewSweeper(deps.Reservations, cfg.SweepInterval, cfg.Retention)
	go sweeper.Run(ctx)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal(err)
		}
	}()
	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	applog.Info(nil, "server.shutdown", nil)
	cancel()
	_ = app.ShutdownWithTimeout(10 * time.Second)
	pub.Close()
	_ = db.Close()
}
