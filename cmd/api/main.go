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

	"ninelives-store-api/internal/cache"
	"ninelives-store-api/internal/config"
	"ninelives-store-api/internal/handler"
	"ninelives-store-api/internal/middleware"
	"ninelives-store-api/internal/repository"
	"ninelives-store-api/internal/router"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/internal/store"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Nine Lives store API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize the document store. If the configured database cannot be
	// opened the server falls back to an in-memory store seeded with demo
	// data, so the catalog and poll still render.
	demoMode := false
	docStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		log.Printf("Warning: document store unavailable (%v), falling back to in-memory demo store", err)
		docStore, err = store.NewSQLiteStore(":memory:")
		if err != nil {
			log.Fatalf("Failed to initialize in-memory store: %v", err)
		}
		demoMode = true
	}
	defer docStore.Close()
	log.Println("Document store initialized")

	// Initialize MySQL connection for credentialed accounts (optional;
	// password sign-in degrades to unavailable without it)
	var mysqlDB *sql.DB
	var accountRepo repository.AccountRepository

	mysqlDB, err = sql.Open("mysql", cfg.Accounts.DSN())
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			repo, err := repository.NewMySQLAccountRepository(mysqlDB)
			if err != nil {
				log.Printf("Warning: accounts schema setup failed: %v", err)
				mysqlDB.Close()
				mysqlDB = nil
			} else {
				accountRepo = repo
				log.Println("MySQL account repository initialized")
			}
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize the session/local-storage cache
	var sessionCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: "ninelives:",
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed (%v), using in-memory cache", err)
			sessionCache = cache.NewMemoryCache()
			cfg.Cache.Type = "memory"
		} else {
			defer redisCache.Close()
			sessionCache = redisCache
			log.Println("Redis cache initialized")
		}
	} else {
		sessionCache = cache.NewMemoryCache()
		log.Println("In-memory cache initialized")
	}

	// Initialize services
	sessionService := service.NewSessionService(sessionCache)
	identityService := service.NewIdentityService(accountRepo, sessionService, cfg.Admin.EmailPattern)

	if cfg.Admin.BootstrapEmail != "" && accountRepo != nil {
		if err := identityService.BootstrapAdmin(context.Background(), cfg.Admin.BootstrapEmail, cfg.Admin.BootstrapPassword); err != nil {
			log.Printf("Warning: admin bootstrap failed: %v", err)
		}
	}

	catalogService := service.NewCatalogService(docStore)
	pollService := service.NewPollService(docStore)
	feedService := service.NewFeedService(docStore, service.FeedConfig{
		Limit:     cfg.Feed.Limit,
		MaxLength: cfg.Feed.MaxLength,
		Blocklist: cfg.Feed.Blocklist,
		Mask:      cfg.Feed.Mask,
	})

	var cartService service.CartService
	switch cfg.Cart.Variant {
	case "local":
		cartService = service.NewLocalCartService(sessionCache)
		log.Println("Cart variant: local (session-keyed list)")
	default:
		cartService = service.NewRemoteCartService(docStore)
		log.Println("Cart variant: remote (per-identity documents)")
	}

	adminGateService := service.NewAdminGateService(sessionCache, identityService, service.GateConfig{
		PIN:           cfg.Admin.PIN,
		TriggerCount:  cfg.Admin.TriggerCount,
		TriggerWindow: cfg.Admin.TriggerWindow,
	})

	// Seed initial data. The poll document always exists; demo mode gets the
	// mock catalog and mock poll tallies, otherwise the poll starts at zero
	// and an operator seeds the catalog from the dashboard.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if demoMode {
		if err := pollService.SeedDemoVotes(startupCtx); err != nil {
			log.Printf("Warning: demo poll seed failed: %v", err)
		}
		if seeded, err := catalogService.Seed(startupCtx); err != nil {
			log.Printf("Warning: demo catalog seed failed: %v", err)
		} else if seeded {
			log.Println("Demo catalog seeded")
		}
	} else if err := pollService.EnsurePoll(startupCtx); err != nil {
		log.Printf("Warning: poll seed failed: %v", err)
	}
	startupCancel()

	// Readiness probes
	handler.RegisterReadyCheck(func() handler.Check {
		status := "ok"
		if err := docStore.Ping(context.Background()); err != nil {
			status = "error"
		} else if demoMode {
			status = "demo"
		}
		return handler.Check{Name: "store", Status: status}
	})
	if accountRepo != nil {
		accounts := accountRepo
		handler.RegisterReadyCheck(func() handler.Check {
			status := "ok"
			if err := accounts.Ping(context.Background()); err != nil {
				status = "error"
			}
			return handler.Check{Name: "accounts", Status: status}
		})
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version, demoMode)
	authHandler := handler.NewAuthHandler(identityService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	pollHandler := handler.NewPollHandler(pollService)
	feedHandler := handler.NewFeedHandler(feedService)
	adminHandler := handler.NewAdminHandler(adminGateService, feedService, docStore, cfg.Cache.Type)

	// Middleware with injected dependencies (NO GLOBALS!)
	sessionMiddleware := middleware.NewSessionMiddleware(middleware.SessionConfig{
		Sessions: sessionService,
	})
	adminMiddleware := middleware.NewAdminMiddleware(adminGateService)

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		CartHandler:       cartHandler,
		PollHandler:       pollHandler,
		FeedHandler:       feedHandler,
		AdminHandler:      adminHandler,
		SessionMiddleware: sessionMiddleware,
		AdminMiddleware:   adminMiddleware,
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
