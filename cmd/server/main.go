// Command server runs the file relay: the Telegram ingress, the HTTP
// download endpoint, and the background expiry sweeper, all in one process.
//
// Subcommands:
//   - serve   run the relay (default)
//   - sweep   run one expiry pass and exit
//   - version print the build version
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nkarimi/go-file-relay/internal/blob"
	"github.com/nkarimi/go-file-relay/internal/bot"
	"github.com/nkarimi/go-file-relay/internal/config"
	httpapi "github.com/nkarimi/go-file-relay/internal/http"
	"github.com/nkarimi/go-file-relay/internal/observability"
	"github.com/nkarimi/go-file-relay/internal/repo"
	"github.com/nkarimi/go-file-relay/internal/sentry"
	"github.com/nkarimi/go-file-relay/internal/services"
	"github.com/nkarimi/go-file-relay/internal/sweep"
	"github.com/nkarimi/go-file-relay/internal/sysutil"

	_ "github.com/nkarimi/go-file-relay/docs"
)

// version is injected at build time via -ldflags.
var version = "dev"

// @title           Go File Relay API
// @version         1.0
// @description     Ephemeral object relay: temporary unauthenticated download links for files and fetched URLs.
// @BasePath        /api/v1

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Ephemeral file relay: files and URLs in, temporary download links out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay (bot ingress, HTTP endpoint, sweeper)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweepOnce()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, sweepCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, configures logging and error reporting,
// opens the database, and builds the service graph shared by serve and
// sweep.
func bootstrap() (config.Config, *gorm.DB, *services.LinkService, *services.StateService, *services.QuotaService, error) {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.GinMode); err != nil {
		return cfg, nil, nil, nil, nil, fmt.Errorf("sentry init: %w", err)
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return cfg, nil, nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return cfg, nil, nil, nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	blobs, err := blob.New(cfg.Blob)
	if err != nil {
		return cfg, nil, nil, nil, nil, fmt.Errorf("blob store: %w", err)
	}

	linkSvc := services.NewLinkService(db, objectRepoShim{}, blobs, cfg.LinkTTL, cfg.MaxPayload, cfg.PublicBaseURL)
	stateSvc := services.NewStateService(db, stateRepoShim{}, cfg.StateTTL)
	quotaSvc := services.NewQuotaService(db, userRepoShim{}, referralRepoShim{},
		cfg.Quota.FreeDailyLimit, cfg.Quota.ReferralThreshold, cfg.Quota.PremiumDuration)

	return cfg, db, linkSvc, stateSvc, quotaSvc, nil
}

func runServe() error {
	cfg, db, linkSvc, stateSvc, quotaSvc, err := bootstrap()
	if err != nil {
		return err
	}
	defer sentry.Flush()
	defer closeDB(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}

	serverErrors := make(chan error, 3)

	// Telegram ingress (optional: the HTTP endpoint still serves existing
	// links without a token).
	if cfg.Bot.Token != "" {
		client := bot.NewClient(cfg.Bot.Token)
		quotaSvc.Notifier = client

		router := bot.NewRouter(client, client, client, quotaSvc, linkSvc, stateSvc,
			services.NewFetchService(cfg.MaxPayload))
		router.AdminID = cfg.Bot.AdminUserID
		router.RequiredChat = cfg.Bot.RequiredChat
		router.ExtendDefault = cfg.LinkTTL
		if me, err := client.GetMe(ctx); err == nil {
			router.BotUsername = me.Username
		} else {
			log.Warn().Err(err).Msg("getMe failed, referral links disabled")
		}

		poller := bot.NewPoller(client, router, cfg.Bot.PollTimeout)
		go func() {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				serverErrors <- fmt.Errorf("bot poller: %w", err)
			}
		}()
	} else {
		log.Warn().Msg("BOT_TOKEN not set, telegram ingress disabled")
	}

	// Background expiry sweeper
	sweeper := sweep.New(linkSvc, stateSvc, cfg.SweepInterval)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrors <- fmt.Errorf("sweeper: %w", err)
		}
	}()

	// HTTP transport
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, linkSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Wait for interrupt or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErrors:
		log.Error().Err(err).Msg("fatal server error, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func runSweepOnce() error {
	cfg, db, linkSvc, stateSvc, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer sentry.Flush()
	defer closeDB(db)

	sweeper := sweep.New(linkSvc, stateSvc, cfg.SweepInterval)
	sweeper.Once(context.Background())
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
