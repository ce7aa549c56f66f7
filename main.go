package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/config"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/distribution"
	server "github.com/mauv0809/prizeplay/internal/http"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/notifier/events"
	"github.com/mauv0809/prizeplay/internal/notifier/slack"
	"github.com/mauv0809/prizeplay/internal/pubsub"
	"github.com/mauv0809/prizeplay/internal/reconciler"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}
	log.SetLevel(cfg.Level())

	db, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		db.Close()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	// Optional integrations: a channel without configuration is left out.
	var slackNotifier, eventNotifier notifier.Notifier
	if cfg.Slack.Enabled() {
		slackNotifier = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID)
	}
	if cfg.ProjectID != "" {
		pubsubClient, err := pubsub.New(context.Background(), cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer pubsubClient.Close()
		eventNotifier = events.New(pubsubClient)
	}
	fanout := notifier.NewFanout(metricsSvc,
		notifier.Channel{Name: "slack", Notifier: slackNotifier},
		notifier.Channel{Name: "pubsub", Notifier: eventNotifier},
	)
	log.Info("Notification channels", "enabled", fanout.Channels())

	tournamentStore := tournament.New(db)
	tournamentSvc := tournament.NewService(tournamentStore, metricsSvc)
	walletStore := wallet.New(db)
	distributor := distribution.New(db, fanout, metricsSvc)
	rec := reconciler.New(tournamentStore, fanout, metricsSvc, cfg.Reconciler.ReminderLead)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := rec.Start(ctx, cfg.Reconciler.StatusInterval, cfg.Reconciler.ReminderInterval); err != nil {
		log.Fatalf("Failed to start reconciler: %s", err)
	}
	defer func() {
		if err := rec.Stop(); err != nil {
			log.Error("Reconciler shutdown failed", "error", err)
		}
	}()

	s := server.NewServer(tournamentSvc, walletStore, distributor, rec, metricsHandler)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
