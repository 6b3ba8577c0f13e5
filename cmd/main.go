/*
Package main is the entry point for the campus portal.

It is responsible for loading configuration, initializing the global logging system,
wiring the backend client, page manager and optional export storage, setting up the
HTTP server, and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
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

	"campusportal/internal/app/analytics"
	"campusportal/internal/app/backend"
	"campusportal/internal/app/roster"
	"campusportal/internal/app/session"
	"campusportal/internal/app/storage"
	"campusportal/internal/app/view"
	"campusportal/internal/configs"
	"campusportal/internal/handler"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("events_api_base", cfg.EventsAPIBase).
		Str("booking_service_url", cfg.BookingServiceURL).
		Str("notification_service_url", cfg.NotificationServiceURL).
		Str("auth_service_url", cfg.AuthServiceURL).
		Dur("backend_timeout", cfg.BackendTimeout).
		Bool("export_enabled", cfg.ExportEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(backend.Endpoints{
		Events:       cfg.EventsAPIBase,
		Booking:      cfg.BookingServiceURL,
		Notification: cfg.NotificationServiceURL,
		Auth:         cfg.AuthServiceURL,
	}, cfg.BackendTimeout)

	// Initialize Page Manager
	pages := view.NewManager(view.Services{
		Backend: client,
		Roster:  roster.NewFetcher(client, cfg.SeatFetchConcurrency),
	}, cfg.PageIdleTimeout)

	var store storage.Service
	if cfg.ExportEnabled() {
		store, err = storage.NewService(ctx, storage.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize export storage")
		}
	} else {
		logx.Info("S3 settings incomplete, registrant exports disabled")
	}

	pager := analytics.NewPager(client, cfg.RegistrantsBatchSize)

	deps := &handler.AppDeps{
		Config:    cfg,
		Sessions:  session.NewCookieStore(cfg.SessionSecret, !cfg.IsDevelopment()),
		Auth:      client,
		Pages:     pages,
		Pow:       pow.NewManager(cfg.PowDifficulty),
		Analytics: client,
		Pager:     pager,
		Exporter:  analytics.NewExporter(pager, store),
	}

	// Setup HTTP server and routes
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Campus Portal starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	pages.Shutdown()

	logx.Info("Server gracefully stopped.")
}
