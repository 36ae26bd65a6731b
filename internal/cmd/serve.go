package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/numbering"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Create missing tables before serving")
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	cfg, logger := e.cfg, e.logger
	logger.Info().Msg("starting storefront API server")

	if serveMigrate {
		if err := migrate(ctx, e, false); err != nil {
			return err
		}
	}

	budgets, err := config.LoadBudgets(cfg.Pricing.BudgetsFile)
	if err != nil {
		return fmt.Errorf("failed to load budgets: %w", err)
	}

	numbers, err := numbering.New(cfg.Numbering.Node)
	if err != nil {
		return err
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(e.pool, logger)
	shippingRepo := repository.NewShippingRepository(e.pool, logger)
	settingsRepo := repository.NewSettingsRepository(e.pool, logger)
	orderRepo := repository.NewOrderRepository(e.pool, logger)
	quoteRepo := repository.NewQuoteRepository(e.pool, logger)
	draftRepo := repository.NewDraftRepository(e.pool, logger)

	// Initialize services
	retry := service.NewRetrier(cfg.Pricing.FetchRetries)
	cache := service.NewPriceCache(cfg.Pricing.CacheSize, time.Duration(cfg.Pricing.CacheTTL)*time.Second)

	catalogService := service.NewCatalogService(productRepo, budgets, cache, cfg.Pricing.SeededShuffle, retry, logger)
	shippingService := service.NewShippingService(productRepo, shippingRepo, retry, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, shippingRepo, settingsRepo, numbers, retry, logger)
	quoteService := service.NewQuoteService(quoteRepo, orderRepo, productRepo, shippingRepo, numbers, retry, logger)
	draftService := service.NewDraftService(draftRepo, productRepo, shippingRepo, retry, logger)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(catalogService, logger),
		Checkout: handler.NewCheckoutHandler(orderService, shippingService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Quotes:   handler.NewQuoteHandler(quoteService, logger),
		Drafts:   handler.NewDraftHandler(draftService, logger),
	}, cfg.Auth.APIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
