package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// GormStore is the Postgres-backed MetadataStore.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&schema.AudioAsset{}, &schema.VoiceProfile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateAsset(ctx context.Context, asset *schema.AudioAsset) error {
	return s.db.WithContext(ctx).Create(asset).Error
}

func (s *GormStore) GetAsset(ctx context.Context, id string) (*schema.AudioAsset, error) {
	var asset schema.AudioAsset
	err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *GormStore) DeleteAsset(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&schema.AudioAsset{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (s *GormStore) ListAssets(ctx context.Context, limit, offset int) ([]schema.AudioAsset, error) {
	var assets []schema.AudioAsset
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&assets).Error
	return assets, err
}

func (s *GormStore) SearchAssets(ctx context.Context, query string, filter Filter, limit, offset int) ([]schema.AudioAsset, error) {
	tx := s.db.WithContext(ctx).Model(&schema.AudioAsset{})

	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(source_text) LIKE ?", pattern, pattern)
	}

	switch filter {
	case FilterWithProfile:
		tx = tx.Where("voice_profile_id IS NOT NULL")
	case FilterWithoutProfile:
		tx = tx.Where("voice_profile_id IS NULL")
	}

	var assets []schema.AudioAsset
	err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&assets).Error
	return assets, err
}

func (s *GormStore) CreateProfile(ctx context.Context, profile *schema.VoiceProfile) error {
	return s.db.WithContext(ctx).Create(profile).Error
}

func (s *GormStore) GetProfile(ctx context.Context, id string) (*schema.VoiceProfile, error) {
	var profile schema.VoiceProfile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *GormStore) ListProfiles(ctx context.Context) ([]schema.VoiceProfile, error) {
	var profiles []schema.VoiceProfile
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

func (s *GormStore) DeleteProfile(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&schema.VoiceProfile{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

var _ MetadataStore = (*GormStore)(nil)
