package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/api"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/config"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/transcription"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting dictation server",
		logger.String("version", Version),
		logger.String("model", cfg.Transcription.Model),
	)

	// Create the transcription client once and hand it down; no package-level
	// instance exists.
	transcriber := transcription.NewClient(transcription.Config{
		APIKey:            cfg.Transcription.OpenAIAPIKey,
		BaseURL:           cfg.Transcription.OpenAIBaseURL,
		Path:              cfg.Transcription.TranscriptionPath,
		Model:             cfg.Transcription.Model,
		MaxAudioSizeBytes: cfg.MaxAudioSizeBytes(),
		TimeoutMs:         cfg.Transcription.TimeoutMs,
		MaxAttempts:       cfg.Transcription.RetryMaxAttempts,
		InitialBackoffMs:  cfg.Transcription.RetryInitialBackoffMs,
		BackoffMultiplier: cfg.Transcription.RetryBackoffMultiple,
		MaxPromptLength:   cfg.Transcription.MaxPromptLength,
	}, log)

	if !transcriber.Healthy() {
		log.Warn("Transcription client is not healthy - check the configured API key")
	}

	// Create API router
	router := api.NewRouter(transcriber, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", server.Addr), logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
