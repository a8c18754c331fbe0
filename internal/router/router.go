package router

import (
	"net/http"

	"ninelives-store-api/internal/handler"
	"ninelives-store-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AuthHandler       *handler.AuthHandler
	CatalogHandler    *handler.CatalogHandler
	CartHandler       *handler.CartHandler
	PollHandler       *handler.PollHandler
	FeedHandler       *handler.FeedHandler
	AdminHandler      *handler.AdminHandler
	SessionMiddleware func(http.Handler) http.Handler
	AdminMiddleware   func(http.Handler) http.Handler
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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no session resolution)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// SESSION-AWARE routes (session middleware resolves identity; anonymous
	// requests still pass through)
	r.Group(func(r chi.Router) {
		if cfg.SessionMiddleware != nil {
			r.Use(cfg.SessionMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/anonymous", cfg.AuthHandler.SignInAnonymously)
					r.Post("/login", cfg.AuthHandler.SignInWithPassword)
					r.Post("/provider", cfg.AuthHandler.SignInWithProvider)
					r.Get("/me", cfg.AuthHandler.Me)
					r.Post("/logout", cfg.AuthHandler.SignOut)
				})
			}

			// Catalog endpoints (reads are public; mutations are gated below)
			if cfg.CatalogHandler != nil {
				r.Get("/products", cfg.CatalogHandler.List)
				r.Get("/products/watch", cfg.CatalogHandler.Watch)
			}

			// Cart endpoints
			if cfg.CartHandler != nil {
				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cfg.CartHandler.Get)
					r.Post("/items", cfg.CartHandler.Add)
					r.Delete("/items/{key}", cfg.CartHandler.Remove)
					r.Get("/watch", cfg.CartHandler.Watch)
				})
			}

			// Poll endpoints
			if cfg.PollHandler != nil {
				r.Route("/poll", func(r chi.Router) {
					r.Get("/", cfg.PollHandler.Results)
					r.Post("/vote", cfg.PollHandler.Vote)
					r.Get("/watch", cfg.PollHandler.Watch)
				})
			}

			// Feed endpoints
			if cfg.FeedHandler != nil {
				r.Route("/feed", func(r chi.Router) {
					r.Get("/", cfg.FeedHandler.Recent)
					r.Post("/", cfg.FeedHandler.Post)
					r.Get("/watch", cfg.FeedHandler.Watch)
				})
			}

			// Admin gate endpoints (any session may walk the gate)
			if cfg.AdminHandler != nil {
				r.Route("/admin/gate", func(r chi.Router) {
					r.Get("/", cfg.AdminHandler.GateState)
					r.Post("/trigger", cfg.AdminHandler.GateTrigger)
					r.Post("/pin", cfg.AdminHandler.GatePin)
					r.Post("/login", cfg.AdminHandler.GateLogin)
					r.Post("/logout", cfg.AdminHandler.GateLogout)
				})
			}

			// PRIVILEGED routes (require an unlocked gate)
			r.Group(func(r chi.Router) {
				if cfg.AdminMiddleware != nil {
					r.Use(cfg.AdminMiddleware)
				}

				if cfg.CatalogHandler != nil {
					r.Post("/products", cfg.CatalogHandler.Create)
					r.Put("/products/{id}", cfg.CatalogHandler.Update)
					r.Delete("/products/{id}", cfg.CatalogHandler.Delete)
					r.Post("/products/seed", cfg.CatalogHandler.Seed)
				}

				if cfg.AdminHandler != nil {
					r.Route("/admin", func(r chi.Router) {
						r.Post("/broadcast", cfg.AdminHandler.Broadcast)
						r.Get("/stats", cfg.AdminHandler.GetStats)
					})
				}
			})
		})
	})

	return r
}
