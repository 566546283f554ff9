package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pms/pms/internal/config"
	"github.com/pms/pms/internal/domain/billing"
	"github.com/pms/pms/internal/domain/encounter"
	"github.com/pms/pms/internal/domain/insurance"
	"github.com/pms/pms/internal/domain/stock"
	"github.com/pms/pms/internal/platform/db"
	"github.com/pms/pms/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pms-server",
		Short: "Practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s)\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx)
			if err != nil {
				return err
			}
			for _, st := range statuses {
				state := "pending"
				if st.Applied {
					state = "applied"
				}
				fmt.Printf("%03d  %-40s %s\n", st.Version, st.Name, state)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler()

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	// Insurance domain
	subRepo := insurance.NewSubscriptionRepoPG(pool)
	ruleRepo := insurance.NewCoverageRuleRepoPG(pool)
	claimRepo := insurance.NewClaimRepoPG(pool)
	insSvc := insurance.NewService(subRepo, ruleRepo, claimRepo)
	insHandler := insurance.NewHandler(insSvc)
	insHandler.RegisterRoutes(apiV1)

	// Stock domain
	itemRepo := stock.NewItemRepoPG(pool)
	medRepo := stock.NewMedicationRepoPG(pool)
	unitRepo := stock.NewServiceUnitRepoPG(pool)
	ledgerRepo := stock.NewLedgerRepoPG(pool)
	stockSvc := stock.NewService(itemRepo, medRepo, unitRepo, ledgerRepo)
	stockHandler := stock.NewHandler(stockSvc)
	stockHandler.RegisterRoutes(apiV1)

	// Encounter domain: coverage and stock services plug in as the
	// validator's collaborators.
	encRepo := encounter.NewEncounterRepoPG(pool)
	encSvc := encounter.NewService(encRepo, insSvc, stockSvc)
	encHandler := encounter.NewHandler(encSvc, pool)
	encHandler.RegisterRoutes(apiV1)

	// Billing domain
	orderRepo := billing.NewServiceOrderRepoPG(pool)
	customerRepo := billing.NewCustomerRepoPG(pool)
	priceRepo := billing.NewPriceRepoPG(pool)
	accountRepo := billing.NewIncomeAccountRepoPG(pool)
	billSvc := billing.NewService(orderRepo, customerRepo, priceRepo, accountRepo)
	billHandler := billing.NewHandler(billSvc)
	billHandler.RegisterRoutes(apiV1)

	e.GET("/healthz", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
