package library

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// MemoryStore is an in-memory MetadataStore for tests. It mirrors the
// GormStore semantics, including newest-first ordering.
type MemoryStore struct {
	mu       sync.RWMutex
	assets   map[string]schema.AudioAsset
	profiles map[string]schema.VoiceProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:   make(map[string]schema.AudioAsset),
		profiles: make(map[string]schema.VoiceProfile),
	}
}

func (s *MemoryStore) CreateAsset(_ context.Context, asset *schema.AudioAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = *asset
	return nil
}

func (s *MemoryStore) GetAsset(_ context.Context, id string) (*schema.AudioAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return &asset, nil
}

func (s *MemoryStore) DeleteAsset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return ErrAssetNotFound
	}
	delete(s.assets, id)
	return nil
}

func (s *MemoryStore) ListAssets(_ context.Context, limit, offset int) ([]schema.AudioAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.sorted(), limit, offset), nil
}

func (s *MemoryStore) SearchAssets(_ context.Context, query string, filter Filter, limit, offset int) ([]schema.AudioAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	matched := make([]schema.AudioAsset, 0)
	for _, a := range s.sorted() {
		if q != "" &&
			!strings.Contains(strings.ToLower(a.Title), q) &&
			!strings.Contains(strings.ToLower(a.SourceText), q) {
			continue
		}
		switch filter {
		case FilterWithProfile:
			if a.VoiceProfileID == nil {
				continue
			}
		case FilterWithoutProfile:
			if a.VoiceProfileID != nil {
				continue
			}
		}
		matched = append(matched, a)
	}
	return page(matched, limit, offset), nil
}

func (s *MemoryStore) CreateProfile(_ context.Context, profile *schema.VoiceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, id string) (*schema.VoiceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]schema.VoiceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]schema.VoiceProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (s *MemoryStore) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *MemoryStore) sorted() []schema.AudioAsset {
	assets := make([]schema.AudioAsset, 0, len(s.assets))
	for _, a := range s.assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})
	return assets
}

func page(assets []schema.AudioAsset, limit, offset int) []schema.AudioAsset {
	if offset >= len(assets) {
		return []schema.AudioAsset{}
	}
	assets = assets[offset:]
	if limit > 0 && limit < len(assets) {
		assets = assets[:limit]
	}
	return assets
}

var _ MetadataStore = (*MemoryStore)(nil)
