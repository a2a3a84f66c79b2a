/*
Package main is the entry point for the krelay netplay server.

It is responsible for loading configuration, initializing the global logging
system, wiring the access controller, the session registry, the UDP transport,
and the operator HTTP API, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"krelay/internal/app/access"
	"krelay/internal/app/db"
	"krelay/internal/app/dispatch"
	"krelay/internal/app/protocol"
	"krelay/internal/app/relay"
	"krelay/internal/app/social"
	"krelay/internal/app/stats"
	"krelay/internal/app/transport"
	"krelay/internal/app/trivia"
	"krelay/internal/configs"
	"krelay/internal/handler"
	"krelay/internal/pkg/logx"
)

const serverVersion = "1.0.0"

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_name", cfg.ServerName).
		Int("relay_port", cfg.RelayPort).
		Int("http_port", cfg.HTTPPort).
		Int("max_users", cfg.MaxUsers).
		Int("max_games", cfg.MaxGames).
		Msg("Configuration loaded successfully")

	if err := protocol.SetCharset(cfg.Charset); err != nil {
		logx.Fatal(err, "Unsupported wire charset", "charset", cfg.Charset)
	}

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Access controller: database-backed when a DSN is configured, static
	// environment lists otherwise.
	var ctrl access.Controller
	var bans handler.BanStore
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to the access store database")
		}
		defer pool.Close()

		store, err := access.NewPostgres(ctx, pool)
		if err != nil {
			logx.Fatal(err, "Failed to load access rules from the database")
		}
		ctrl = store
		bans = store
	} else {
		ctrl = access.NewStatic(cfg)
		logx.Info("Using static access lists; ban endpoints disabled")
	}

	gauges := stats.NewGauges()

	version := fmt.Sprintf("%s %s (protocol %s)", cfg.ServerName, serverVersion, transport.ProtocolVersion)

	var registry *relay.Server

	var reporter social.Reporter
	if cfg.SocialReportDelay > 0 {
		reporter = social.NewBroadcaster(cfg.SocialReportDelay, func(gameID uint16, message string) {
			registry.PostGameNotice(gameID, message)
		})
	}

	var scorer trivia.Scorer
	if cfg.TriviaEnabled {
		scorer = trivia.NewGame()
	}

	registry = relay.NewServer(cfg, ctrl, gauges, reporter, scorer, version)
	registry.Start()

	dispatcher := dispatch.NewDispatcher(registry, cfg)

	relaySrv, err := transport.NewServer(cfg, registry, dispatcher)
	if err != nil {
		logx.Fatal(err, "Failed to bind the relay socket")
	}
	go func() {
		if err := relaySrv.Run(ctx); err != nil {
			logx.Fatal(err, "Relay transport failed")
		}
	}()

	// Setup the operator HTTP server and routes
	deps := &handler.AppDeps{
		Registry: registry,
		Gauges:   gauges,
		Config:   cfg,
		Bans:     bans,
		Version:  serverVersion,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Operator API starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Operator API failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Operator API forced to shutdown")
	}

	registry.Stop()

	logx.Info("Server gracefully stopped.")
}
