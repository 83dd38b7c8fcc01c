// cmd/dashboard/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-temp-dashboard/internal/api"
	"live-temp-dashboard/internal/auth"
	"live-temp-dashboard/internal/config"
	"live-temp-dashboard/internal/dashboard"
	"live-temp-dashboard/internal/logging"
	"live-temp-dashboard/internal/metrics"
	"live-temp-dashboard/web"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	issueToken := flag.String("issue-token", "", "Print an API token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of a token printed by -issue-token")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuring logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	authManager := auth.NewAuthManager(auth.Config{
		APIKeys:   cfg.Auth.APIKeys,
		JWTSecret: cfg.Auth.JWTSecret,
		JWTIssuer: cfg.Auth.JWTIssuer,
	})
	if *issueToken != "" {
		token, err := authManager.GenerateJWT(*issueToken, *tokenTTL)
		if err != nil {
			log.Error("issuing token", "err", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, authManager, log); err != nil {
		log.Error("dashboard server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, authManager *auth.AuthManager, log *slog.Logger) error {
	// --- Initialize Components ---
	m := metrics.New()
	registry := dashboard.NewRegistry(cfg, dashboard.Options{
		SuspendIdle: cfg.Telemetry.SuspendIdle,
		IdleGrace:   cfg.Telemetry.IdleGrace,
		Metrics:     m,
		Logger:      log,
	})

	apiHandler, err := api.NewAPIHandler(registry, web.Assets, log)
	if err != nil {
		return err
	}
	var guard api.Middleware
	if authManager.Enabled() {
		guard = authManager.Middleware
		log.Info("API authentication enabled")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.SetupRouter(apiHandler, guard, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Start hubs and schedulers ---
	done := make(chan struct{})
	go func() {
		registry.Run(ctx)
		close(done)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting dashboard server", "port", cfg.Server.Port, "dashboards", len(registry.All()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		stop()
		<-done
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "err", err)
	}
	<-done
	log.Info("server gracefully stopped")
	return nil
}
