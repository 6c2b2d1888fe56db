// Command tourlined runs the tour narration server: the SSE chat endpoint,
// tour session management, health, and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/tourline/tourline/config"
	"github.com/tourline/tourline/narrator/openai"
	"github.com/tourline/tourline/server"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	loader, err := config.NewLoader(*configPath, logger)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *configPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer stopWatch()
		}
	}

	cfg := loader.Config()
	if cfg.Narrator.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; narration requests will fail")
	}
	provider := openai.New(cfg.Narrator.APIKey,
		openai.WithBaseURL(cfg.Narrator.BaseURL),
		openai.WithModel(cfg.Narrator.Model),
	)

	srv := server.New(provider, loader, server.WithLogger(logger))
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "model", cfg.Narrator.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
