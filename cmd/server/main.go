// Jarvis - Personal AI Assistant Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jarvislab/jarvis/internal/api"
	"github.com/jarvislab/jarvis/internal/assistant"
	"github.com/jarvislab/jarvis/internal/config"
	"github.com/jarvislab/jarvis/internal/gateway"
	"github.com/jarvislab/jarvis/internal/identity"
	"github.com/jarvislab/jarvis/internal/middleware"
	"github.com/jarvislab/jarvis/internal/session"
	"github.com/jarvislab/jarvis/internal/store"
	"github.com/jarvislab/jarvis/internal/tracker"
	"github.com/jarvislab/jarvis/web"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		APIKey:  cfg.Gateway.APIKey,
		Model:   cfg.Gateway.Model,
		Timeout: cfg.Gateway.Timeout,
	})
	slog.Info("AI gateway client initialized", "model", cfg.Gateway.Model)

	// Initialize services.
	hub := session.NewHub()
	states := session.NewTracker(hub)

	chatLogger, err := assistant.NewChatLogger(assistant.ChatLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize chat logger", "error", err)
		os.Exit(1)
	}

	assistantSvc := assistant.NewService(repo, gatewayClient, states, assistant.NoopSynthesizer{}, assistant.Options{
		HistoryLimit:      cfg.Chat.HistoryLimit,
		SpeechPrefixRunes: cfg.Chat.SpeechPrefixRunes,
	})
	trackerSvc := tracker.NewService(repo, gatewayClient)

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, cfg)
	assistantHandler := assistant.NewHandler(assistantSvc, states, chatLogger, cfg)
	defer assistantHandler.Close()
	trackerHandler := tracker.NewHandler(trackerSvc)
	wsHandler := session.NewWSHandler(hub, states, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	assistantHandler.RegisterRoutes(r)
	trackerHandler.RegisterRoutes(r)

	// WebSocket endpoint for assistant state pushes.
	r.Get("/ws/state", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: SSE connections require long timeouts (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,                 // 0 = no timeout for SSE support
		IdleTimeout:  120 * time.Second, // 2 minutes for idle connections
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
