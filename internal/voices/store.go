package voices

import (
	"context"
	"errors"
)

// ErrVoiceNotFound indicates the requested voice id does not resolve.
var ErrVoiceNotFound = errors.New("voice not found")

// ErrBuiltInVoice indicates an attempt to mutate a built-in entry.
var ErrBuiltInVoice = errors.New("built-in voices cannot be modified")

// ErrNameRequired indicates a custom voice was submitted without a name.
var ErrNameRequired = errors.New("voice name is required")

// ErrUnknownBaseVoice indicates the base voice id is not a built-in.
var ErrUnknownBaseVoice = errors.New("base voice must be a built-in voice")

// Document is the per-caller persisted catalog state: the caller's custom
// voices in insertion order. The primary marker lives on the entries; the
// catalog keeps it exclusive.
type Document struct {
	Voices []Custom `json:"voices"`
}

// Store persists one catalog document per caller.
type Store interface {
	// Load returns the caller's document, or an empty document when the
	// caller has no saved state.
	Load(ctx context.Context, caller string) (*Document, error)
	// Save replaces the caller's document.
	Save(ctx context.Context, caller string, doc *Document) error
}
