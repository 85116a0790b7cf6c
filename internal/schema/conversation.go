package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// fallbackSpeakerLabel is used when a line's speaker cannot be resolved.
const fallbackSpeakerLabel = "Speaker"

// ConversationLine is one turn in a multi-speaker script.
type ConversationLine struct {
	ID      string `json:"id" msgpack:"id"`
	Speaker string `json:"speaker" msgpack:"speaker"`
	Text    string `json:"text" msgpack:"text"`
}

// ConversationRequest is the inbound multi-speaker generation payload.
type ConversationRequest struct {
	Title  string             `json:"title,omitempty" msgpack:"title,omitempty"`
	Lines  []ConversationLine `json:"lines" msgpack:"lines"`
	Speed  *float64           `json:"speed,omitempty" msgpack:"speed,omitempty"`
	Volume *float64           `json:"volume,omitempty" msgpack:"volume,omitempty"`
}

// SpeakerResolver maps a voice id to a display name. The boolean reports
// whether the id resolved.
type SpeakerResolver func(id string) (string, bool)

// Flatten renders the script into a single synthesis request. Lines are
// rendered as "[<name>]: <text>" joined by newlines, preserving input
// order. The first line's speaker becomes the voice for the whole call;
// per-line voices in one synthesis call are not supported.
func (r *ConversationRequest) Flatten(resolve SpeakerResolver) (*SynthesisRequest, error) {
	if len(r.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Message: "Conversation needs at least one line"}
	}

	total := 0
	for _, line := range r.Lines {
		total += utf8.RuneCountInString(line.Text)
	}
	if total > MaxTextLength {
		return nil, &ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("Total dialogue length cannot exceed %d characters", MaxTextLength),
		}
	}

	rendered := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		name, ok := resolve(line.Speaker)
		if !ok {
			name = fallbackSpeakerLabel
		}
		rendered = append(rendered, fmt.Sprintf("[%s]: %s", name, line.Text))
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

	voice := r.Lines[0].Speaker
	if voice == "" {
		voice = DefaultVoiceID
	}

	return &SynthesisRequest{
		Text:      strings.Join(rendered, "\n"),
		Voice:     voice,
		Speed:     speed,
		Volume:    volume,
		Format:    defaultFormat,
		Streaming: false,
	}, nil
}

// TotalLength reports the summed character count of all line texts.
func (r *ConversationRequest) TotalLength() int {
	total := 0
	for _, line := range r.Lines {
		total += utf8.RuneCountInString(line.Text)
	}
	return total
}
