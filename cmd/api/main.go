package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const notifyTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.Env).Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)

	if err := importCoupons(ctx, cfg, couponRepo, logger); err != nil {
		return err
	}

	// Order confirmations go out in the background after commit
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.SMS.Enabled {
		notifier = notify.NewSMSNotifier(cfg.SMS, logger)
	}
	dispatcher := notify.NewDispatcher(notifier, notifyTimeout, logger)
	defer dispatcher.Wait()

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	stockService := service.NewStockService(productRepo, cartRepo, cfg.Stock.ReservationTTL, logger)
	cartService := service.NewCartService(cartRepo, productRepo, cfg.Stock.ReservationTTL, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, addressRepo, couponRepo, dispatcher, logger)

	// Initialize HTTP handlers
	opts := handler.Options{ExposeErrorDetail: cfg.IsDevelopment()}
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, stockService, opts, logger),
		Cart:    handler.NewCartHandler(cartService, opts, logger),
		Order:   handler.NewOrderHandler(orderService, opts, logger),
	}

	// Initialize router
	mux := router.New(handlers, auth.NewVerifier(cfg.Auth.JWTSecret), cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed, waiting for pending notifications")
	}

	return nil
}

// importCoupons upserts the configured coupon files, reading them from S3
// when enabled and from local disk otherwise or on S3 failure.
func importCoupons(ctx context.Context, cfg *config.Config, store coupon.Store, logger zerolog.Logger) error {
	if len(cfg.Coupons.Files) == 0 {
		logger.Info().Msg("no coupon files configured")
		return nil
	}

	fileLoader := coupon.NewFileLoader(logger)
	var s3Loader coupon.Loader

	if cfg.S3.Enabled {
		// Create S3 loader
		l, err := coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for coupon files (S3 disabled)")
	}

	loader := coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)
	n, err := coupon.NewImporter(loader, store, logger).Import(ctx, cfg.Coupons.Files)
	if err != nil {
		return fmt.Errorf("failed to import coupons: %w", err)
	}

	logger.Info().Int("coupons", n).Msg("coupon import finished")
	return nil
}
