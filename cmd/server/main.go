package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecofinder/backend/config"
	httpDelivery "github.com/ecofinder/backend/internal/delivery/http"
	"github.com/ecofinder/backend/internal/domain"
	"github.com/ecofinder/backend/internal/infrastructure/cache"
	"github.com/ecofinder/backend/internal/infrastructure/logging"
	"github.com/ecofinder/backend/internal/infrastructure/scoring"
	"github.com/ecofinder/backend/internal/infrastructure/seed"
	"github.com/ecofinder/backend/internal/infrastructure/stub"
	"github.com/ecofinder/backend/internal/usecase"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"provider":     cfg.Provider.Type,
		"augment_mode": cfg.Catalog.AugmentMode,
	}).Info("Starting EcoFinder Backend v1.0.0")

	// Load the seed catalog
	products, err := seed.Load(cfg.Catalog.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}
	catalog, err := usecase.NewCatalogStore(products, usecase.AugmentMode(cfg.Catalog.AugmentMode))
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	logger.WithField("products", len(products)).Info("Seed catalog loaded")

	// Initialize infrastructure dependencies
	searchCache := cache.NewMemoryCache()
	provider := usecase.NewCachingProvider(newProvider(cfg, products, logger), searchCache, cfg.Cache.TTL, logger)
	limiter := httpDelivery.NewPerMinuteRateLimiter(cfg.RateLimit.PerIP)

	sessions := usecase.NewSessionRegistry(catalog, provider, logger, usecase.SessionConfig{
		AnalysisTimeout: cfg.Analysis.Timeout,
		MinQueryLength:  cfg.Analysis.MinQueryLength,
	})

	// Setup router
	handler := httpDelivery.NewHandler(sessions, logger)
	router := httpDelivery.SetupRouter(cfg, handler, limiter, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return searchCache.Run(gctx, cfg.Cache.CleanupInterval)
	})

	g.Go(func() error {
		return sessions.Run(gctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
	})

	g.Go(func() error {
		return limiter.Run(gctx, time.Minute, 3*time.Minute)
	})

	return g.Wait()
}

// newProvider builds the configured analysis provider
func newProvider(cfg *config.Config, products []domain.Product, logger *logrus.Logger) domain.AnalysisProvider {
	if cfg.Provider.Type != "http" {
		logger.Info("Using in-process stub analysis provider")
		return stub.NewProvider(products, nil, logger)
	}

	client := scoring.NewClient(scoring.Config{
		BaseURL:       cfg.Provider.BaseURL,
		APIKey:        cfg.Provider.APIKey,
		RatePerSecond: cfg.Provider.RatePerSecond,
		Burst:         cfg.Provider.Burst,
		MaxRetries:    cfg.Provider.MaxRetries,
	}, logger)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		logger.Info("Scoring client debug mode enabled")
	}

	if cfg.Provider.APIKey == "" {
		logger.WithField("base_url", cfg.Provider.BaseURL).Warn("Scoring service API key not configured")
	} else {
		logger.WithField("base_url", cfg.Provider.BaseURL).Info("Scoring service configured")
	}
	return client
}
