package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/config"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/transcription"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(transcriber *transcription.Client, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(transcriber, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Transcription route, rate limited per client IP when enabled
		router.Group(func(router chi.Router) {
			if r.config.RateLimit.Enabled {
				router.Use(httprate.LimitByIP(
					r.config.RateLimit.RequestsPerWindow,
					time.Duration(r.config.RateLimit.WindowSeconds)*time.Second,
				))
			}
			router.Post("/transcribe", r.handler.Transcribe)
		})

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	// Serve the recorder UI from the configured directory
	staticHandler := NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger)
	router.Handle("/*", staticHandler)

	return router
}
