package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/voicestudio/voicestudio/internal/config"
	"github.com/voicestudio/voicestudio/internal/library"
	"github.com/voicestudio/voicestudio/internal/provider"
	"github.com/voicestudio/voicestudio/internal/queue"
	"github.com/voicestudio/voicestudio/internal/schema"
	"github.com/voicestudio/voicestudio/internal/voices"
)

// defaultCaller scopes catalog state for requests without a caller id.
const defaultCaller = "default"

// Handler carries the service dependencies for all HTTP handlers.
type Handler struct {
	provider provider.Client
	catalog  *voices.Catalog
	library  *library.Service
	pool     *queue.Pool
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(p provider.Client, catalog *voices.Catalog, lib *library.Service, pool *queue.Pool, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		provider: p,
		catalog:  catalog,
		library:  lib,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
	}
}

func callerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Caller-ID")); id != "" {
		return id
	}
	return defaultCaller
}

// HandleHealthGet responds to GET /v1/health.
func (h *Handler) HandleHealthGet(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, schema.HealthResponse{Status: "ok"})
}

// HandleHealthPost responds to POST /v1/health.
func (h *Handler) HandleHealthPost(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, schema.HealthResponse{Status: "ok"})
}

// HandleGenerate synthesizes a single utterance, persists the result as
// a library asset, and returns the audio inline.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := ParseTTSRequest(r)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	syn, err := req.Validate()
	if err != nil {
		h.writeRequestError(w, err)
		return
	}

	var profileID *string
	if req.VoiceProfileID != "" {
		id := req.VoiceProfileID
		profileID = &id
	}

	h.synthesizeAndStore(w, r, syn, library.CreateParams{
		Title:          req.Title,
		SourceText:     syn.Text,
		Format:         syn.Format,
		Speed:          syn.Speed,
		Volume:         syn.Volume,
		VoiceProfileID: profileID,
	})
}

// HandleConversation flattens a multi-speaker script into one synthesis
// call, persists the result, and returns the audio inline.
func (h *Handler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	req, err := ParseConversationRequest(r)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	resolve := h.catalog.SpeakerResolver(r.Context(), callerID(r))
	syn, err := req.Flatten(resolve)
	if err != nil {
		h.writeRequestError(w, err)
		return
	}

	h.synthesizeAndStore(w, r, syn, library.CreateParams{
		Title:      req.Title,
		SourceText: syn.Text,
		Format:     syn.Format,
		Speed:      syn.Speed,
		Volume:     syn.Volume,
	})
}

// synthesizeAndStore is the shared tail of both generation paths: map
// the requested voice to a synthesis engine, run the provider call
// through the admission pool, persist, and respond.
func (h *Handler) synthesizeAndStore(w http.ResponseWriter, r *http.Request, syn *schema.SynthesisRequest, params library.CreateParams) {
	engine := h.catalog.ResolveForSynthesis(r.Context(), callerID(r), syn.Voice)
	syn.Voice = engine.ID

	var audio []byte
	err := h.pool.Submit(r.Context(), func(ctx context.Context) error {
		var synthErr error
		audio, synthErr = h.provider.Synthesize(ctx, syn)
		return synthErr
	})
	if err != nil {
		h.writeSynthesisError(w, err)
		return
	}

	asset, err := h.library.CreateAsset(r.Context(), params, audio)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to persist asset")
		WriteError(w, http.StatusInternalServerError, "Failed to save generated audio")
		return
	}

	w.Header().Set("X-Asset-ID", asset.ID)
	WriteAudio(w, asset.Format, audio, CacheNever)
}

// HandleListAudio lists or searches library assets.
func (h *Handler) HandleListAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := parseIntParam(q.Get("limit"), library.DefaultListLimit)
	offset := parseIntParam(q.Get("offset"), 0)
	filter := library.ParseFilter(q.Get("filter"))

	assets, err := h.library.SearchAssets(r.Context(), q.Get("q"), filter, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list assets")
		WriteError(w, http.StatusInternalServerError, "Failed to list audio library")
		return
	}

	WriteJSON(w, http.StatusOK, assets)
}

// HandleGetAudio streams a stored asset's audio bytes.
func (h *Handler) HandleGetAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset, audio, err := h.library.GetAsset(r.Context(), id)
	if err != nil {
		if errors.Is(err, library.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, "Audio not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("failed to load asset")
		WriteError(w, http.StatusInternalServerError, "Failed to load audio")
		return
	}

	WriteAudio(w, asset.Format, audio, CacheForever)
}

// HandleGetAudioInfo returns a stored asset's metadata record.
func (h *Handler) HandleGetAudioInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset, _, err := h.library.GetAsset(r.Context(), id)
	if err != nil {
		if errors.Is(err, library.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, "Audio not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("failed to load asset")
		WriteError(w, http.StatusInternalServerError, "Failed to load audio")
		return
	}

	WriteJSON(w, http.StatusOK, asset)
}

// HandleDeleteAudio removes an asset record and its audio file.
func (h *Handler) HandleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.library.DeleteAsset(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrAssetNotFound) {
			WriteError(w, http.StatusNotFound, "Audio not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("failed to delete asset")
		WriteError(w, http.StatusInternalServerError, "Failed to delete audio")
		return
	}

	WriteJSON(w, http.StatusOK, schema.SuccessResponse{Success: true})
}

// HandleListVoices returns the caller's catalog, built-ins first.
func (h *Handler) HandleListVoices(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.List(r.Context(), callerID(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load voice catalog")
		WriteError(w, http.StatusInternalServerError, "Failed to load voices")
		return
	}

	views := make([]voices.View, 0, len(entries))
	for _, e := range entries {
		views = append(views, voices.ViewOf(e))
	}
	WriteJSON(w, http.StatusOK, views)
}

type addVoiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseVoiceID string `json:"baseVoiceId"`
}

// HandleAddVoice adds a custom voice to the caller's catalog.
func (h *Handler) HandleAddVoice(w http.ResponseWriter, r *http.Request) {
	var req addVoiceRequest
	if err := ParseRequestBody(r, &req); err != nil {
		h.writeParseError(w, err)
		return
	}

	voice, err := h.catalog.Add(r.Context(), callerID(r), req.Name, req.Description, req.BaseVoiceID)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, voices.ViewOf(*voice))
}

// HandleDeleteVoice removes a custom voice from the caller's catalog.
func (h *Handler) HandleDeleteVoice(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Remove(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		h.writeCatalogError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schema.SuccessResponse{Success: true})
}

// HandleSetPrimaryVoice marks a custom voice as the caller's primary.
func (h *Handler) HandleSetPrimaryVoice(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.SetPrimary(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		h.writeCatalogError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schema.SuccessResponse{Success: true})
}

type addProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseVoiceID string `json:"baseVoiceId"`
}

// HandleListProfiles returns all voice profiles.
func (h *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.library.ListProfiles(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list profiles")
		WriteError(w, http.StatusInternalServerError, "Failed to list voice profiles")
		return
	}
	WriteJSON(w, http.StatusOK, profiles)
}

// HandleAddProfile creates a voice profile.
func (h *Handler) HandleAddProfile(w http.ResponseWriter, r *http.Request) {
	var req addProfileRequest
	if err := ParseRequestBody(r, &req); err != nil {
		h.writeParseError(w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "Profile name is required")
		return
	}

	profile, err := h.library.CreateProfile(r.Context(), req.Name, req.Description, req.BaseVoiceID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create profile")
		WriteError(w, http.StatusInternalServerError, "Failed to create voice profile")
		return
	}

	WriteJSON(w, http.StatusCreated, profile)
}

// HandleDeleteProfile removes a voice profile.
func (h *Handler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, library.ErrProfileNotFound) {
			WriteError(w, http.StatusNotFound, "Voice profile not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to delete profile")
		WriteError(w, http.StatusInternalServerError, "Failed to delete voice profile")
		return
	}
	WriteJSON(w, http.StatusOK, schema.SuccessResponse{Success: true})
}

func (h *Handler) writeParseError(w http.ResponseWriter, err error) {
	if httpErr, ok := IsHTTPError(err); ok {
		WriteError(w, httpErr.Status, httpErr.Message)
		return
	}
	WriteError(w, http.StatusBadRequest, "Invalid request")
}

func (h *Handler) writeRequestError(w http.ResponseWriter, err error) {
	var vErr *schema.ValidationError
	if errors.As(err, &vErr) {
		WriteError(w, http.StatusBadRequest, vErr.Message)
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeSynthesisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrBusy):
		WriteError(w, http.StatusServiceUnavailable, "Too many concurrent generations, try again shortly")
	case errors.Is(err, queue.ErrShutdown):
		WriteError(w, http.StatusServiceUnavailable, "Server is shutting down")
	case errors.Is(err, provider.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "Speech synthesis timed out")
	case errors.Is(err, provider.ErrProviderUnavailable):
		WriteError(w, http.StatusBadGateway, "Speech synthesis service unavailable")
	default:
		var pErr *provider.ProviderError
		if errors.As(err, &pErr) {
			WriteError(w, http.StatusBadGateway, pErr.Message)
			return
		}
		h.logger.Error().Err(err).Msg("synthesis failed")
		WriteError(w, http.StatusInternalServerError, "Speech synthesis failed")
	}
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voices.ErrNameRequired):
		WriteError(w, http.StatusBadRequest, "Voice name is required")
	case errors.Is(err, voices.ErrUnknownBaseVoice):
		WriteError(w, http.StatusBadRequest, "Unknown base voice")
	case errors.Is(err, voices.ErrBuiltInVoice):
		WriteError(w, http.StatusBadRequest, "Built-in voices cannot be modified")
	case errors.Is(err, voices.ErrVoiceNotFound):
		WriteError(w, http.StatusNotFound, "Voice not found")
	default:
		h.logger.Error().Err(err).Msg("voice catalog operation failed")
		WriteError(w, http.StatusInternalServerError, "Voice catalog unavailable")
	}
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
