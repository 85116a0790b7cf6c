package voices

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	customIDPrefix     = "custom-"
	customVoiceColor   = "bg-indigo-500"
	defaultDescription = "Custom voice"
)

// Catalog answers voice lookups over the built-in set layered with a
// caller's custom voices.
type Catalog struct {
	store Store
}

// NewCatalog creates a catalog backed by the given per-caller store.
func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// List returns the catalog in display order: built-ins first in
// declaration order, then the caller's custom voices in insertion order.
func (c *Catalog) List(ctx context.Context, caller string) ([]Entry, error) {
	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(builtins)+len(doc.Voices))
	for _, b := range builtins {
		entries = append(entries, b)
	}
	for _, v := range doc.Voices {
		entries = append(entries, v)
	}
	return entries, nil
}

// Resolve looks up a voice by id across built-ins and the caller's custom
// voices.
func (c *Catalog) Resolve(ctx context.Context, caller, id string) (Entry, error) {
	if b, ok := builtInByID(id); ok {
		return b, nil
	}

	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return nil, err
	}

	for _, v := range doc.Voices {
		if v.ID == id {
			return v, nil
		}
	}

	return nil, ErrVoiceNotFound
}

// ResolveForSynthesis resolves a voice for a synthesis call. Unknown or
// stale ids degrade to the default built-in voice instead of failing the
// request. A custom voice resolves to the built-in engine behind it.
func (c *Catalog) ResolveForSynthesis(ctx context.Context, caller, id string) BuiltIn {
	entry, err := c.Resolve(ctx, caller, id)
	if err != nil {
		return defaultBuiltIn()
	}

	switch v := entry.(type) {
	case BuiltIn:
		return v
	case Custom:
		if b, ok := builtInByID(v.BaseVoiceID); ok {
			return b
		}
		return defaultBuiltIn()
	}
	return defaultBuiltIn()
}

// SpeakerResolver returns a display-name resolver over the caller's
// catalog for script flattening. Catalog load failures degrade to
// resolving nothing rather than blocking generation.
func (c *Catalog) SpeakerResolver(ctx context.Context, caller string) func(id string) (string, bool) {
	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		doc = &Document{}
	}

	return func(id string) (string, bool) {
		if b, ok := builtInByID(id); ok {
			return b.Name, true
		}
		for _, v := range doc.Voices {
			if v.ID == id {
				return v.Name, true
			}
		}
		return "", false
	}
}

// Add appends a custom voice to the caller's catalog. The name must be
// non-blank; the base voice must be a built-in (the default when empty).
func (c *Catalog) Add(ctx context.Context, caller, name, description, baseVoiceID string) (*Custom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if baseVoiceID == "" {
		baseVoiceID = DefaultVoiceID
	}
	if _, ok := builtInByID(baseVoiceID); !ok {
		return nil, ErrUnknownBaseVoice
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultDescription
	}

	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return nil, err
	}

	voice := Custom{
		ID:          customIDPrefix + uuid.NewString(),
		Name:        name,
		Description: description,
		BaseVoiceID: baseVoiceID,
		Color:       customVoiceColor,
		AddedAt:     time.Now(),
	}
	doc.Voices = append(doc.Voices, voice)

	if err := c.store.Save(ctx, caller, doc); err != nil {
		return nil, err
	}

	return &voice, nil
}

// Remove deletes a custom voice. Built-in and unknown ids report
// ErrVoiceNotFound (built-ins also ErrBuiltInVoice). Removing the primary
// voice clears the marker; it is not transferred.
func (c *Catalog) Remove(ctx context.Context, caller, id string) error {
	if _, ok := builtInByID(id); ok {
		return ErrBuiltInVoice
	}

	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return err
	}

	kept := doc.Voices[:0]
	found := false
	for _, v := range doc.Voices {
		if v.ID == id {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return ErrVoiceNotFound
	}
	doc.Voices = kept

	return c.store.Save(ctx, caller, doc)
}

// SetPrimary marks a custom voice as the caller's primary voice and
// clears the marker on every other entry. Targeting a built-in is
// rejected; the invariant that at most one entry is primary is enforced
// here, not by callers.
func (c *Catalog) SetPrimary(ctx context.Context, caller, id string) error {
	if _, ok := builtInByID(id); ok {
		return ErrBuiltInVoice
	}

	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return err
	}

	found := false
	for i := range doc.Voices {
		if doc.Voices[i].ID == id {
			doc.Voices[i].Primary = true
			found = true
		} else {
			doc.Voices[i].Primary = false
		}
	}
	if !found {
		return ErrVoiceNotFound
	}

	return c.store.Save(ctx, caller, doc)
}

// Primary returns the caller's primary custom voice, if any.
func (c *Catalog) Primary(ctx context.Context, caller string) (*Custom, error) {
	doc, err := c.store.Load(ctx, caller)
	if err != nil {
		return nil, err
	}

	for _, v := range doc.Voices {
		if v.Primary {
			voice := v
			return &voice, nil
		}
	}
	return nil, nil
}
