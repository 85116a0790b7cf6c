package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/voicestudio/voicestudio/internal/config"
	"github.com/voicestudio/voicestudio/internal/library"
	"github.com/voicestudio/voicestudio/internal/provider"
	"github.com/voicestudio/voicestudio/internal/queue"
	"github.com/voicestudio/voicestudio/internal/voices"
)

// NewRouter constructs the HTTP router with middleware and routes.
func NewRouter(cfg *config.Config, p provider.Client, catalog *voices.Catalog, lib *library.Service, pool *queue.Pool, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware)
	if cfg.Auth.APIKey != "" {
		r.Use(AuthMiddleware(cfg.Auth.APIKey))
	}

	h := NewHandler(p, catalog, lib, pool, cfg, logger)

	r.Get("/v1/health", h.HandleHealthGet)
	r.Post("/v1/health", h.HandleHealthPost)

	r.Post("/v1/tts", h.HandleGenerate)
	r.Post("/v1/conversations", h.HandleConversation)

	r.Get("/v1/audio", h.HandleListAudio)
	r.Get("/v1/audio/{id}", h.HandleGetAudio)
	r.Get("/v1/audio/{id}/info", h.HandleGetAudioInfo)
	r.Delete("/v1/audio/{id}", h.HandleDeleteAudio)

	r.Get("/v1/voices", h.HandleListVoices)
	r.Post("/v1/voices", h.HandleAddVoice)
	r.Delete("/v1/voices/{id}", h.HandleDeleteVoice)
	r.Put("/v1/voices/{id}/primary", h.HandleSetPrimaryVoice)

	r.Get("/v1/voice-profiles", h.HandleListProfiles)
	r.Post("/v1/voice-profiles", h.HandleAddProfile)
	r.Delete("/v1/voice-profiles/{id}", h.HandleDeleteProfile)

	return r
}
