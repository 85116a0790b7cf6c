package library

import (
	"context"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// Filter narrows asset queries by voice profile association.
type Filter string

const (
	FilterAll            Filter = "all"
	FilterWithProfile    Filter = "with-profile"
	FilterWithoutProfile Filter = "without-profile"
)

// ParseFilter maps a request value to a Filter; anything unrecognized
// (including empty) behaves as FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterWithProfile, FilterWithoutProfile:
		return Filter(s)
	default:
		return FilterAll
	}
}

// MetadataStore persists asset records and voice profiles. Listings are
// always newest first.
type MetadataStore interface {
	CreateAsset(ctx context.Context, asset *schema.AudioAsset) error
	GetAsset(ctx context.Context, id string) (*schema.AudioAsset, error)
	DeleteAsset(ctx context.Context, id string) error
	ListAssets(ctx context.Context, limit, offset int) ([]schema.AudioAsset, error)
	SearchAssets(ctx context.Context, query string, filter Filter, limit, offset int) ([]schema.AudioAsset, error)

	CreateProfile(ctx context.Context, profile *schema.VoiceProfile) error
	GetProfile(ctx context.Context, id string) (*schema.VoiceProfile, error)
	ListProfiles(ctx context.Context) ([]schema.VoiceProfile, error)
	DeleteProfile(ctx context.Context, id string) error
}
