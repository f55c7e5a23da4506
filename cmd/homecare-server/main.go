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

	"github.com/homevisit/homevisit/internal/config"
	"github.com/homevisit/homevisit/internal/domain/identity"
	"github.com/homevisit/homevisit/internal/domain/visit"
	"github.com/homevisit/homevisit/internal/domain/vitals"
	"github.com/homevisit/homevisit/internal/platform/auth"
	"github.com/homevisit/homevisit/internal/platform/blobstore"
	"github.com/homevisit/homevisit/internal/platform/db"
	"github.com/homevisit/homevisit/internal/platform/middleware"
	"github.com/homevisit/homevisit/internal/platform/relay"
	"github.com/homevisit/homevisit/internal/platform/remind"
	"github.com/homevisit/homevisit/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "homecare-server",
		Short: "Home-visit clinical record API server",
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
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
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
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
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

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode, default access codes may be active")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Attachment storage
	blobs, err := blobstore.New(cfg.AttachmentDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open attachment store")
	}

	// Outbound relays
	relays := relay.NewDispatcher(logger, relayEndpoints(cfg), cfg.RelaySecret)
	relays.Start()
	defer relays.Stop()

	// Domain services
	visitSvc := visit.NewService(
		visit.NewRepoPG(pool, cfg.VisitListCap),
		cfg.FollowUpService, cfg.FollowUpCharge,
	)
	vitalsSvc := vitals.NewService(vitals.NewRepoPG(pool, cfg.VitalsListCap))
	identitySvc := identity.NewService(identity.NewRepoPG(pool))
	renderer := report.NewRenderer(cfg.ClinicName, cfg.ConsultantName, cfg.ComplianceNote)

	// Session gate
	sessionSecret := []byte(cfg.SessionSecret)
	if len(sessionSecret) == 0 {
		// Development fallback: sessions do not survive a restart.
		sessionSecret = []byte(fmt.Sprintf("dev-%d", time.Now().UnixNano()))
	}
	gate := auth.NewGate(cfg.DoctorAccessCode, cfg.PatientAccessCode,
		sessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	// Reminder scheduler
	reminders := remind.NewScheduler(visitSvc, relays, logger, cfg.ReminderSchedule)
	if err := reminders.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start reminder scheduler")
	}
	defer reminders.Stop()

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

	e.GET("/healthz", db.HealthHandler(pool))
	e.POST("/api/v1/session", gate.SessionHandler)

	api := e.Group("/api/v1", gate.Middleware())
	visit.NewHandler(visitSvc, relays).RegisterRoutes(api)
	vitals.NewHandler(vitalsSvc, relays).RegisterRoutes(api)
	identity.NewHandler(identitySvc, relays).RegisterRoutes(api)
	report.NewHandler(visitSvc, identitySvc, blobs, renderer, relays).RegisterRoutes(api)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		errCh <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
			return err
		}
	}
	logger.Info().Msg("server stopped")
	return nil
}

func relayEndpoints(cfg *config.Config) map[relay.Kind]string {
	endpoints := map[relay.Kind]string{}
	add := func(kind relay.Kind, url string) {
		if url != "" {
			endpoints[kind] = url
		}
	}
	add(relay.KindLeadCapture, cfg.RelayLeadURL)
	add(relay.KindVitalsSync, cfg.RelayVitalsURL)
	add(relay.KindReportSync, cfg.RelayReportURL)
	add(relay.KindWorkflowTrigger, cfg.RelayWorkflowURL)
	add(relay.KindDoseReminder, cfg.RelayReminderURL)
	return endpoints
}
