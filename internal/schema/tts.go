package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength is the synthesis text ceiling, counted in characters.
	MaxTextLength = 1024

	// DefaultVoiceID is the built-in voice used when none is requested.
	DefaultVoiceID = "tongtong"

	defaultSpeed  = 1.0
	defaultVolume = 1.0
	defaultFormat = "wav"

	minSpeed  = 0.5
	maxSpeed  = 2.0
	maxVolume = 10.0
)

// ValidationError reports which input field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TTSRequest is the inbound single-utterance generation payload.
// Speed and volume are pointers so an omitted field can be told apart
// from an explicit zero.
type TTSRequest struct {
	Text   string   `json:"text" msgpack:"text"`
	Voice  string   `json:"voice" msgpack:"voice"`
	Speed  *float64 `json:"speed,omitempty" msgpack:"speed,omitempty"`
	Volume *float64 `json:"volume,omitempty" msgpack:"volume,omitempty"`

	Title          string `json:"title,omitempty" msgpack:"title,omitempty"`
	VoiceProfileID string `json:"voice_profile_id,omitempty" msgpack:"voice_profile_id,omitempty"`
}

// SynthesisRequest is a normalized, validated ask to the provider.
// It doubles as the provider wire payload.
type SynthesisRequest struct {
	Text      string  `json:"text" msgpack:"text"`
	Voice     string  `json:"voice" msgpack:"voice"`
	Speed     float64 `json:"speed" msgpack:"speed"`
	Volume    float64 `json:"volume" msgpack:"volume"`
	Format    string  `json:"format" msgpack:"format"`
	Streaming bool    `json:"streaming" msgpack:"streaming"`
}

// Validate applies defaults and checks the request against synthesis rules.
// The first failing rule wins. On success it returns the normalized request.
func (r *TTSRequest) Validate() (*SynthesisRequest, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Message: "Please enter valid text content"}
	}

	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("Text length cannot exceed %d characters", MaxTextLength),
		}
	}

	speed := defaultSpeed
	if r.Speed != nil {
		speed = *r.Speed
	}
	if speed < minSpeed || speed > maxSpeed {
		return nil, &ValidationError{Field: "speed", Message: "Speed must be between 0.5 and 2.0"}
	}

	volume := defaultVolume
	if r.Volume != nil {
		volume = *r.Volume
	}
	if volume <= 0 || volume > maxVolume {
		return nil, &ValidationError{Field: "volume", Message: "Volume must be between 0 and 10"}
	}

	voice := r.Voice
	if voice == "" {
		voice = DefaultVoiceID
	}

	return &SynthesisRequest{
		Text:      text,
		Voice:     voice,
		Speed:     speed,
		Volume:    volume,
		Format:    defaultFormat,
		Streaming: false,
	}, nil
}
