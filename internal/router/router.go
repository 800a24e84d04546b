package router

import (
	"net/http"

	"loyalty-rewards-api/internal/handler"
	"loyalty-rewards-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	ReservationHandler *handler.ReservationHandler
	RedemptionHandler  *handler.RedemptionHandler
	WebhookHandler     *handler.WebhookHandler
	PointsHandler      *handler.PointsHandler
	CatalogueHandler   *handler.CatalogueHandler
	AdminHandler       *handler.AdminHandler
	ReadyChecks        []handler.ReadyCheck
	AdminMiddleware    func(http.Handler) http.Handler
	SweepMiddleware    func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Login-Key", "X-Sweep-Key", "X-Payment-Signature"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready(cfg.ReadyChecks...))
		}

		// Reservation endpoints
		if cfg.ReservationHandler != nil {
			r.Route("/units/{unit_id}", func(r chi.Router) {
				r.Post("/reserve", cfg.ReservationHandler.Reserve)
				r.Post("/release", cfg.ReservationHandler.Release)
			})
		}

		// Redemption endpoints
		if cfg.RedemptionHandler != nil {
			r.Route("/redemptions", func(r chi.Router) {
				r.Post("/verify", cfg.RedemptionHandler.Verify)
				r.Post("/complete", cfg.RedemptionHandler.Complete)
			})
		}

		// Payment webhook (signature-verified in the handler, no key middleware)
		if cfg.WebhookHandler != nil {
			r.Post("/webhooks/payment", cfg.WebhookHandler.PaymentEvent)
		}

		// Points summary
		if cfg.PointsHandler != nil {
			r.Get("/points", cfg.PointsHandler.Summary)
		}

		// Catalogue read endpoints
		if cfg.CatalogueHandler != nil {
			r.Get("/catalogue", cfg.CatalogueHandler.List)
			r.Get("/catalogue/{item_id}/units", cfg.CatalogueHandler.Units)
		}

		// Admin endpoints (X-Login-Key)
		r.Group(func(r chi.Router) {
			if cfg.AdminMiddleware != nil {
				r.Use(cfg.AdminMiddleware)
			}
			if cfg.AdminHandler != nil {
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			}
			if cfg.CatalogueHandler != nil {
				r.Post("/admin/catalogue/sync", cfg.CatalogueHandler.Sync)
			}
		})

		// Sweep endpoint (X-Sweep-Key)
		if cfg.ReservationHandler != nil {
			r.Group(func(r chi.Router) {
				if cfg.SweepMiddleware != nil {
					r.Use(cfg.SweepMiddleware)
				}
				r.Post("/admin/reservations/sweep", cfg.ReservationHandler.Sweep)
			})
		}
	})

	return r
}
