package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty-rewards-api/internal/cache"
	"loyalty-rewards-api/internal/clock"
	"loyalty-rewards-api/internal/config"
	"loyalty-rewards-api/internal/handler"
	"loyalty-rewards-api/internal/middleware"
	"loyalty-rewards-api/internal/repository"
	"loyalty-rewards-api/internal/router"
	"loyalty-rewards-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Loyalty Rewards API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	clk := clock.NewSystem()

	// Initialize the unit/ledger store based on config
	var db *sql.DB
	var err error
	switch cfg.Database.Type {
	case "mysql":
		db, err = repository.OpenMySQL(cfg.Database.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		log.Println("MySQL store initialized")
	default: // sqlite
		db, err = repository.OpenSQLite(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		log.Println("SQLite store initialized")
	}
	defer db.Close()

	var unitRepo repository.UnitRepository
	var redemptionRepo repository.RedemptionRepository
	var ledgerRepo repository.LedgerRepository
	if cfg.Database.Type == "mysql" {
		unitRepo = repository.NewMySQLUnitRepository(db)
		redemptionRepo = repository.NewMySQLRedemptionRepository(db)
		ledgerRepo = repository.NewMySQLLedgerRepository(db)
	} else {
		unitRepo = repository.NewSQLiteUnitRepository(db)
		redemptionRepo = repository.NewSQLiteRedemptionRepository(db)
		ledgerRepo = repository.NewSQLiteLedgerRepository(db)
	}

	// Initialize the points cache and pending hold store. Redis is preferred;
	// the in-memory fallback keeps a single instance functional without it.
	var pointsCache cache.PointsCache
	var pendingHolds cache.PendingHoldStore
	if cfg.Cache.Type == "redis" {
		redisClient, err := cache.NewRedisClient(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to in-memory cache: %v", err)
		} else {
			defer redisClient.Close()
			pointsCache = cache.NewRedisPointsCache(redisClient, cfg.Cache.SummaryTTL)
			pendingHolds = cache.NewRedisPendingHoldStore(redisClient)
			log.Println("Redis cache initialized")
		}
	}
	if pointsCache == nil {
		pointsCache = cache.NewMemoryPointsCache(cfg.Cache.SummaryTTL)
		pendingHolds = cache.NewMemoryPendingHoldStore()
		log.Println("In-memory cache initialized")
	}

	// Initialize services
	reservationService := service.NewReservationService(unitRepo, pendingHolds, clk,
		service.WithHoldTTL(cfg.Reservation.HoldTTL))
	verifierService := service.NewVerifierService(pendingHolds, unitRepo, redemptionRepo, clk,
		service.WithPendingHoldTTL(cfg.Reservation.PendingHoldTTL))
	pointsService := service.NewPointsService(ledgerRepo, pointsCache, clk)
	paymentService := service.NewPaymentService(ledgerRepo, pointsService, cfg.Webhook.SigningSecret, clk)
	redemptionService := service.NewRedemptionService(redemptionRepo, pointsService, pendingHolds, clk)
	catalogueService := service.NewCatalogueService(unitRepo, clk)

	// Internal expiry sweep (can be disabled when an external scheduler
	// drives the sweep endpoint instead)
	var sweeper *service.SweepScheduler
	if cfg.Reservation.SweepInternal {
		sweeper = service.NewSweepScheduler(reservationService, service.SweepConfig{
			Interval: cfg.Reservation.SweepInterval,
		})
		sweeper.Start()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	reservationHandler := handler.NewReservationHandler(reservationService)
	redemptionHandler := handler.NewRedemptionHandler(verifierService, redemptionService)
	webhookHandler := handler.NewWebhookHandler(paymentService)
	pointsHandler := handler.NewPointsHandler(pointsService)
	catalogueHandler := handler.NewCatalogueHandler(catalogueService)
	adminHandler := handler.NewAdminHandler(unitRepo, cfg.Database.Type)

	readyChecks := []handler.ReadyCheck{
		func() handler.Check {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			status := "ok"
			if err := db.PingContext(ctx); err != nil {
				status = "unavailable"
			}
			return handler.Check{Name: "database", Status: status}
		},
	}

	// Create router
	r := router.New(router.Config{
		Handler:            healthHandler,
		ReservationHandler: reservationHandler,
		RedemptionHandler:  redemptionHandler,
		WebhookHandler:     webhookHandler,
		PointsHandler:      pointsHandler,
		CatalogueHandler:   catalogueHandler,
		AdminHandler:       adminHandler,
		ReadyChecks:        readyChecks,
		AdminMiddleware:    middleware.RequireKey("X-Login-Key", cfg.Admin.LoginKey),
		SweepMiddleware:    middleware.RequireKey("X-Sweep-Key", cfg.Reservation.SweepKey),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
