package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/neodose/neodose/internal/config"
	"github.com/neodose/neodose/internal/domain/account"
	"github.com/neodose/neodose/internal/domain/alert"
	"github.com/neodose/neodose/internal/domain/guideline"
	"github.com/neodose/neodose/internal/domain/patient"
	"github.com/neodose/neodose/internal/platform/db"
	"github.com/neodose/neodose/internal/platform/mailer"
	"github.com/neodose/neodose/internal/platform/middleware"
)

// batchLockKey identifies the advisory lock serializing reconciliation
// runs across processes.
const batchLockKey = 7401982

func main() {
	rootCmd := &cobra.Command{
		Use:   "neodose-server",
		Short: "Neonatal antibiotic dosing oversight service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dosing oversight API server",
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
			dir, _ := cmd.Flags().GetString("dir")

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

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

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

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// reconcileCmd runs the daily batch once and prints the summary. An
// external scheduler (cron) is expected to invoke it; the advisory lock
// makes overlapping invocations safe.
func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run the daily antibiotic reconciliation batch once",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

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

			guidelineCache := guideline.NewCache(
				guideline.NewSourcePG(pool).LoadRows,
				cfg.GuidelineCacheTTL,
				logger,
			)
			sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.AlertFrom, logger)
			accountSvc := account.NewService(account.NewRepo(pool))

			batch := alert.NewBatch(
				patient.NewPatientRepo(pool),
				patient.NewDailyLogRepo(pool),
				patient.NewOrderRepo(pool),
				guideline.NewResolver(guidelineCache),
				alert.NewDispatcher(accountSvc, sender, logger),
				db.NewAdvisoryLock(pool, batchLockKey),
				logger,
			)
			summary, err := batch.Run(ctx)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Repositories
	patientRepo := patient.NewPatientRepo(pool)
	logRepo := patient.NewDailyLogRepo(pool)
	orderRepo := patient.NewOrderRepo(pool)
	accountRepo := account.NewRepo(pool)

	// Guideline engine
	guidelineCache := guideline.NewCache(
		guideline.NewSourcePG(pool).LoadRows,
		cfg.GuidelineCacheTTL,
		logger,
	)
	resolver := guideline.NewResolver(guidelineCache)

	// Services
	patientSvc := patient.NewService(patientRepo, logRepo, orderRepo)
	accountSvc := account.NewService(accountRepo)

	// Alerting
	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.AlertFrom, logger)
	dispatcher := alert.NewDispatcher(accountSvc, sender, logger)
	evaluator := alert.NewManualEvaluator(patientRepo, logRepo, resolver, dispatcher, logger)
	worker := alert.NewWorker(evaluator, 64, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		worker.Start(workerCtx)
		close(workerDone)
	}()

	// Handlers
	apiV1 := e.Group("/api/v1")
	patient.NewHandler(patientSvc, resolver, guidelineCache, func(patientID uuid.UUID, drugName, dose, frequency string, criticallyIll bool) {
		worker.Enqueue(alert.ManualEntry{
			PatientID:     patientID,
			DrugName:      drugName,
			Dose:          dose,
			Frequency:     frequency,
			CriticallyIll: criticallyIll,
		})
	}).RegisterRoutes(apiV1)
	account.NewHandler(accountSvc, cfg.JWTSecret).RegisterRoutes(apiV1)

	// Reconciliation batch, exposed for operators alongside the
	// reconcile subcommand.
	batch := alert.NewBatch(patientRepo, logRepo, orderRepo, resolver, dispatcher,
		db.NewAdvisoryLock(pool, batchLockKey), logger)
	apiV1.POST("/reconcile", func(c echo.Context) error {
		summary, err := batch.Run(c.Request().Context())
		if err == alert.ErrAlreadyRunning {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, summary)
	})

	// Start server
	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
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

	// Let the alert worker drain queued evaluations before the pool
	// closes.
	stopWorker()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("alert worker did not drain in time")
	}

	logger.Info().Msg("server stopped")
	return nil
}
