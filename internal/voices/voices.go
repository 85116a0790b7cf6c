// Package voices implements the voice catalog: a fixed set of built-in
// voice identities layered with per-caller custom voices, one of which may
// carry the "primary" marker.
package voices

import (
	"time"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// DefaultVoiceID is the built-in voice substituted when a requested voice
// does not resolve.
const DefaultVoiceID = schema.DefaultVoiceID

// Entry is a catalog entry, either a BuiltIn or a Custom voice. The
// interface is sealed so lookup and render sites can switch exhaustively.
type Entry interface {
	VoiceID() string
	DisplayName() string
	sealedEntry()
}

// BuiltIn is a process-wide voice identity defined at startup. Built-in
// entries are immutable and cannot be removed.
type BuiltIn struct {
	ID          string
	Name        string
	Description string
	Color       string
}

func (b BuiltIn) VoiceID() string     { return b.ID }
func (b BuiltIn) DisplayName() string { return b.Name }
func (b BuiltIn) sealedEntry()        {}

// Custom is a caller-owned voice identity backed by one of the built-in
// voice engines. At most one custom voice per caller is primary.
type Custom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BaseVoiceID string    `json:"base_voice_id"`
	Color       string    `json:"color"`
	Primary     bool      `json:"primary"`
	AddedAt     time.Time `json:"added_at"`
}

func (c Custom) VoiceID() string     { return c.ID }
func (c Custom) DisplayName() string { return c.Name }
func (c Custom) sealedEntry()        {}

// builtins holds the fixed catalog in declaration order.
var builtins = []BuiltIn{
	{ID: "tongtong", Name: "TongTong", Description: "Warm and friendly", Color: "bg-emerald-500"},
	{ID: "chuichui", Name: "ChuiChui", Description: "Lively and cute", Color: "bg-pink-500"},
	{ID: "xiaochen", Name: "XiaoChen", Description: "Professional and calm", Color: "bg-blue-500"},
	{ID: "jam", Name: "Jam", Description: "British gentleman", Color: "bg-purple-500"},
	{ID: "kazi", Name: "Kazi", Description: "Clear and standard", Color: "bg-orange-500"},
	{ID: "douji", Name: "Douji", Description: "Natural and fluent", Color: "bg-cyan-500"},
	{ID: "luodo", Name: "LuoDo", Description: "Expressive and engaging", Color: "bg-red-500"},
}

// BuiltIns returns the built-in voices in declaration order.
func BuiltIns() []BuiltIn {
	out := make([]BuiltIn, len(builtins))
	copy(out, builtins)
	return out
}

// builtInByID looks up a built-in voice.
func builtInByID(id string) (BuiltIn, bool) {
	for _, b := range builtins {
		if b.ID == id {
			return b, true
		}
	}
	return BuiltIn{}, false
}

// defaultBuiltIn returns the catalog's default voice.
func defaultBuiltIn() BuiltIn {
	b, _ := builtInByID(DefaultVoiceID)
	return b
}

// View is the transport representation of a catalog entry.
type View struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsCustom    bool   `json:"isCustom"`
	IsPrimary   bool   `json:"isPrimary,omitempty"`
}

// ViewOf renders an entry for transport.
func ViewOf(e Entry) View {
	switch v := e.(type) {
	case BuiltIn:
		return View{ID: v.ID, Name: v.Name, Description: v.Description, Color: v.Color}
	case Custom:
		return View{
			ID:          v.ID,
			Name:        v.Name,
			Description: v.Description,
			Color:       v.Color,
			IsCustom:    true,
			IsPrimary:   v.Primary,
		}
	}
	return View{}
}
