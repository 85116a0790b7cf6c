// Package library owns the asset lifecycle: audio bytes on a blob
// store, metadata records beside them, and the query surface over both.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// DefaultListLimit applies when a listing request does not set one.
const DefaultListLimit = 50

// CreateParams describes a new asset. Title may be empty; a generated
// title is filled in.
type CreateParams struct {
	Title          string
	SourceText     string
	Format         string
	Speed          float64
	Volume         float64
	VoiceProfileID *string
}

// Service coordinates the blob store and the metadata store so records
// and files stay consistent.
type Service struct {
	blobs  BlobStore
	meta   MetadataStore
	logger zerolog.Logger
}

func NewService(blobs BlobStore, meta MetadataStore, logger zerolog.Logger) *Service {
	return &Service{blobs: blobs, meta: meta, logger: logger}
}

// CreateAsset writes the audio to blob storage and then records the
// metadata. The file is written first so a failed record never leaves a
// record pointing at nothing.
func (s *Service) CreateAsset(ctx context.Context, params CreateParams, audio []byte) (*schema.AudioAsset, error) {
	id := uuid.NewString()

	format := params.Format
	if format == "" {
		format = "wav"
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = "Generated Audio " + time.Now().Format("2006-01-02 15:04:05")
	}

	path := fmt.Sprintf("audio-%s.%s", id, format)
	if err := s.blobs.Write(path, audio); err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	asset := &schema.AudioAsset{
		ID:             id,
		Title:          title,
		SourceText:     params.SourceText,
		StoragePath:    path,
		Format:         format,
		Speed:          params.Speed,
		Volume:         params.Volume,
		VoiceProfileID: params.VoiceProfileID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.meta.CreateAsset(ctx, asset); err != nil {
		if rmErr := s.blobs.Remove(path); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove orphaned audio file")
		}
		return nil, fmt.Errorf("failed to record asset: %w", err)
	}

	s.resolveProfileName(ctx, asset)
	return asset, nil
}

// GetAsset returns the record and the audio bytes. A record whose file
// has gone missing reports ErrAssetNotFound, same as a missing record.
func (s *Service) GetAsset(ctx context.Context, id string) (*schema.AudioAsset, []byte, error) {
	asset, err := s.meta.GetAsset(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	audio, err := s.blobs.Read(asset.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	s.resolveProfileName(ctx, asset)
	return asset, audio, nil
}

// DeleteAsset removes the record first; the file removal is best
// effort. An orphaned file is recoverable by a cleanup sweep, an
// orphaned record is not.
func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	asset, err := s.meta.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	if err := s.meta.DeleteAsset(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Remove(asset.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("path", asset.StoragePath).Msg("failed to remove audio file")
	}
	return nil
}

// ListAssets returns a page of records, newest first.
func (s *Service) ListAssets(ctx context.Context, limit, offset int) ([]schema.AudioAsset, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	assets, err := s.meta.ListAssets(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.resolveProfileNames(ctx, assets)
	return assets, nil
}

// SearchAssets applies a case-insensitive substring match over title and
// source text together with a profile filter, then pages the result.
func (s *Service) SearchAssets(ctx context.Context, query string, filter Filter, limit, offset int) ([]schema.AudioAsset, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	assets, err := s.meta.SearchAssets(ctx, query, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	s.resolveProfileNames(ctx, assets)
	return assets, nil
}

// CreateProfile stores a new voice profile.
func (s *Service) CreateProfile(ctx context.Context, name, description, baseVoiceID string) (*schema.VoiceProfile, error) {
	profile := &schema.VoiceProfile{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		BaseVoiceID: baseVoiceID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.meta.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns a profile by id.
func (s *Service) GetProfile(ctx context.Context, id string) (*schema.VoiceProfile, error) {
	return s.meta.GetProfile(ctx, id)
}

// ListProfiles returns all profiles, newest first.
func (s *Service) ListProfiles(ctx context.Context) ([]schema.VoiceProfile, error) {
	return s.meta.ListProfiles(ctx)
}

// DeleteProfile removes a profile. Assets referencing it keep their
// dangling id and display without a profile name.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	return s.meta.DeleteProfile(ctx, id)
}

func (s *Service) resolveProfileName(ctx context.Context, asset *schema.AudioAsset) {
	if asset.VoiceProfileID == nil {
		return
	}
	profile, err := s.meta.GetProfile(ctx, *asset.VoiceProfileID)
	if err != nil {
		return
	}
	asset.VoiceProfileName = profile.Name
}

func (s *Service) resolveProfileNames(ctx context.Context, assets []schema.AudioAsset) {
	names := make(map[string]string)
	for i := range assets {
		id := assets[i].VoiceProfileID
		if id == nil {
			continue
		}
		name, ok := names[*id]
		if !ok {
			if profile, err := s.meta.GetProfile(ctx, *id); err == nil {
				name = profile.Name
			}
			names[*id] = name
		}
		assets[i].VoiceProfileName = name
	}
}
