package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/playbook-access-api/internal/access"
	"github.com/playbook-access-api/internal/api"
	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/config"
	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/database"
	"github.com/playbook-access-api/internal/identity"
	"github.com/playbook-access-api/internal/repository"
	"github.com/playbook-access-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Playbook Access API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Load static catalogs
	cat, err := catalog.Load(cfg.Catalog.PromocodesPath, cfg.Catalog.ChaptersPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalogs")
	}
	log.Info().Int("chapters", cat.TotalChapters()).Msg("Catalogs loaded")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	identitySvc := identity.NewService(repos.User, cfg.Auth, log)
	contentSvc := content.NewService(repos.Content, log)
	accessSvc := access.New(cat, identitySvc, log)

	if err := accessSvc.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start access service")
	}
	defer accessSvc.Stop()

	// Initialize router
	router := api.NewRouter(api.Deps{
		Access:   accessSvc,
		Identity: identitySvc,
		Content:  contentSvc,
		Catalog:  cat,
	}, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
