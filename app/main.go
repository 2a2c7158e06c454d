package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/postwave/postwave/app/api"
	"github.com/postwave/postwave/app/automation"
	"github.com/postwave/postwave/app/cfg"
	"github.com/postwave/postwave/app/clients"
	"github.com/postwave/postwave/app/compose"
	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
	"github.com/postwave/postwave/app/feed"
	"github.com/postwave/postwave/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Postwave", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	profileCache := compose.NewProfileCache(appCfg.ProfilesDir)
	if err := profileCache.Run(); err != nil {
		slog.Error("Failed to load client profiles", "dir", appCfg.ProfilesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Client profiles loaded", "count", profileCache.GetProfileCount())

	automationRepo := database.NewAutomationRepository(db)
	runRepo := database.NewRunRepository(db)
	artifactRepo := database.NewArtifactRepository(db)
	credentialRepo := database.NewCredentialRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	evaluator := automation.NewEvaluator(fetcher)

	orchestrator := engine.New(engine.Deps{
		AutomationRepo:   automationRepo,
		RunRepo:          runRepo,
		ArtifactRepo:     artifactRepo,
		CredentialRepo:   credentialRepo,
		NotificationRepo: notificationRepo,
		Evaluator:        evaluator,
		FeedSource:       fetcher,
		Composer:         compose.NewComposer(),
		Profiles:         profileCache,
		Research:         compose.NewResearch(httpClient, appCfg.UserAgent),
		Generator:        clients.NewGenerationClient(appCfg.AnthropicAPIKey, appCfg.GenerationModel, appCfg.GenerationMaxTokens),
		Imager:           clients.NewImageClient(httpClient, appCfg.ImageServiceURL, appCfg.ImageServiceKey),
		Publisher:        clients.NewPublishClient(httpClient, appCfg.PublishServiceURL, appCfg.PublishServiceKey),
		WorkerCount:      appCfg.WorkerCount,
	})

	scheduler := tasks.NewScheduler(orchestrator, automationRepo)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)

	handler := api.NewHandler(automationRepo, runRepo, credentialRepo, notificationRepo, orchestrator, profileCache)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
