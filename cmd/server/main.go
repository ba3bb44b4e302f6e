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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"roomify/server/config"
	"roomify/server/internal/api"
	"roomify/server/internal/database"
	"roomify/server/internal/feed"
	"roomify/server/internal/geocoding"
	"roomify/server/internal/matching"
	"roomify/server/internal/middleware"
	"roomify/server/internal/models"
	"roomify/server/internal/notify"
	"roomify/server/internal/processor"
	"roomify/server/internal/queue"
	"roomify/server/internal/scheduler"
	"roomify/server/internal/scoring"
	"roomify/server/internal/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "roomify",
		Short:        "Roomify match lifecycle and feed ranking server",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd(), newTokenCmd())
	return root
}

// setup loads .env and the configuration and builds the process logger
func setup() (*config.Config, *logrus.Logger, error) {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.WithError(err).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return cfg, logger, nil
}

func openDatabase(cfg *config.Config, logger *logrus.Logger) (*database.Database, error) {
	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
	}).Info("Opening database")

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := database.MigrateSchema(db.DB()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("Database schema is up to date")
			return nil
		},
	}
}

// newImportCmd loads a user and property directory snapshot
func newImportCmd() *cobra.Command {
	var (
		file    string
		geocode bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert users and properties from a YAML directory snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			snap, err := processor.LoadSnapshot(file)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			var geocoder processor.Geocoder
			if geocode {
				g := geocoding.NewGeocoder(cfg.Geocoding, logger)
				defer func() {
					if err := g.Save(); err != nil {
						logger.WithError(err).Warn("Failed to save geocode cache")
					}
				}()
				geocoder = g
			}

			result, err := processor.NewBatchProcessor(db, geocoder, cfg.Import.BatchSize, logger).Process(cmd.Context(), snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d users and %d properties (%d geocoded, %d without location)\n",
				result.Users, result.Properties, result.Geocoded, result.GeocodeFailed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the snapshot YAML file")
	cmd.Flags().BoolVar(&geocode, "geocode", false, "look up coordinates for properties that only have an address")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newTokenCmd issues a bearer token for local testing against the API
func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			parsed, ok := models.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role: %s", role)
			}
			token, expiresAt, err := middleware.GenerateToken(userID, parsed, cfg.Server.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTenant), "TENANT, LANDLORD or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return serve(cfg, logger)
		},
	}
}

func serve(cfg *config.Config, logger *logrus.Logger) error {
	if cfg.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if cfg.Server.PaymentSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET is not set, payment confirmations will be rejected")
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Workflow events fan out to the chat log and, if configured, Telegram
	events := queue.NewEventQueue(cfg.Events.BufferSize, logger)
	chat := notify.NewChatLog(db, logger)
	events.Subscribe(chat.Handle)
	if cfg.Telegram.Enabled {
		telegram := notify.NewTelegram(notify.TelegramConfig{
			IsEnabled: true,
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
		}, logger)
		events.Subscribe(telegram.Handle)
		logger.Info("Telegram notifications enabled")
	}
	events.Start()
	defer events.Close()

	workflowService := workflow.NewService(db, events, logger)
	handler := api.NewHandler(db,
		matching.NewService(db, cfg.Scoring, logger),
		feed.NewService(db, scoring.NewScorer(cfg.Scoring), feed.NewRanker(cfg.Feed), logger),
		workflowService,
		chat,
		logger,
	)

	if cfg.Offers.ExpiryEnabled {
		sweeper := scheduler.NewScheduler(workflowService, cfg.Offers.TTL, cfg.Offers.SweepInterval, logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	if level, _ := logrus.ParseLevel(cfg.Log.Level); level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(cfg, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		return err
	}
	logger.Info("Server stopped")
	return nil
}
