package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// Cache-Control values for audio responses. Fresh generations must not
// be cached; stored assets are immutable and cache forever.
const (
	CacheNever   = "no-cache"
	CacheForever = "public, max-age=31536000"
)

// WriteError writes a standard error payload.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(schema.ErrorResponse{Detail: message})
}

// WriteJSON writes the data structure as JSON.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteAudio writes binary audio data inline with an explicit length and
// the given cache policy.
func WriteAudio(w http.ResponseWriter, format string, data []byte, cacheControl string) {
	w.Header().Set("Content-Type", AudioContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AudioContentType returns the MIME type for a given audio format.
func AudioContentType(format string) string {
	switch strings.ToLower(format) {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "pcm":
		return "audio/pcm"
	default:
		return "application/octet-stream"
	}
}
