package library

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicestudio/voicestudio/internal/schema"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	blobs, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return NewService(blobs, NewMemoryStore(), zerolog.Nop())
}

func createAsset(t *testing.T, svc *Service, title string, profileID *string) *schema.AudioAsset {
	t.Helper()
	asset, err := svc.CreateAsset(context.Background(), CreateParams{
		Title:          title,
		SourceText:     "some spoken text",
		Format:         "wav",
		Speed:          1.0,
		Volume:         1.0,
		VoiceProfileID: profileID,
	}, []byte("audio-bytes"))
	require.NoError(t, err)
	// keep CreatedAt strictly increasing for ordering tests
	time.Sleep(2 * time.Millisecond)
	return asset
}

func TestCreateAndGetAsset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	asset := createAsset(t, svc, "Greeting", nil)
	assert.NotEmpty(t, asset.ID)
	assert.Equal(t, "Greeting", asset.Title)
	assert.Contains(t, asset.StoragePath, asset.ID)
	assert.Contains(t, asset.StoragePath, ".wav")

	got, audio, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), audio)
	assert.Equal(t, asset.ID, got.ID)
	assert.Nil(t, got.Duration)
}

func TestCreateAssetDefaultTitle(t *testing.T) {
	svc := newTestService(t)

	asset, err := svc.CreateAsset(context.Background(), CreateParams{
		SourceText: "hello",
		Format:     "wav",
		Speed:      1.0,
		Volume:     1.0,
	}, []byte("x"))
	require.NoError(t, err)
	assert.Contains(t, asset.Title, "Generated Audio")
}

func TestGetAssetMissing(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.GetAsset(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestGetAssetMissingFile(t *testing.T) {
	blobs := NewMemoryBlobStore()
	svc := NewService(blobs, NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	asset, err := svc.CreateAsset(ctx, CreateParams{Title: "T", Format: "wav", Speed: 1, Volume: 1}, []byte("x"))
	require.NoError(t, err)

	// A record whose audio file is gone behaves like a missing asset.
	require.NoError(t, blobs.Remove(asset.StoragePath))

	_, _, err = svc.GetAsset(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestDeleteAsset(t *testing.T) {
	blobs := NewMemoryBlobStore()
	svc := NewService(blobs, NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	asset, err := svc.CreateAsset(ctx, CreateParams{Title: "T", Format: "wav", Speed: 1, Volume: 1}, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAsset(ctx, asset.ID))
	assert.False(t, blobs.Exists(asset.StoragePath))

	assert.ErrorIs(t, svc.DeleteAsset(ctx, asset.ID), ErrAssetNotFound)
}

func TestListAssetsNewestFirstAndPaged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := createAsset(t, svc, "A", nil)
	b := createAsset(t, svc, "B", nil)
	c := createAsset(t, svc, "C", nil)

	assets, err := svc.ListAssets(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, c.ID, assets[0].ID)
	assert.Equal(t, b.ID, assets[1].ID)
	assert.Equal(t, a.ID, assets[2].ID)

	page, err := svc.ListAssets(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, c.ID, page[0].ID)
	assert.Equal(t, b.ID, page[1].ID)

	page, err = svc.ListAssets(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, a.ID, page[0].ID)
}

func TestSearchAssets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "Narrator", "deep", "jam")
	require.NoError(t, err)

	createAsset(t, svc, "Morning Greeting", nil)
	withProfile := createAsset(t, svc, "Evening News", &profile.ID)

	// case-insensitive match over the title
	assets, err := svc.SearchAssets(ctx, "greeting", FilterAll, 0, 0)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Morning Greeting", assets[0].Title)

	// match over the source text
	assets, err = svc.SearchAssets(ctx, "SPOKEN", FilterAll, 0, 0)
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	assets, err = svc.SearchAssets(ctx, "", FilterWithProfile, 0, 0)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, withProfile.ID, assets[0].ID)
	assert.Equal(t, "Narrator", assets[0].VoiceProfileName)

	assets, err = svc.SearchAssets(ctx, "", FilterWithoutProfile, 0, 0)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Morning Greeting", assets[0].Title)

	assets, err = svc.SearchAssets(ctx, "greeting", FilterWithProfile, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestProfileLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "  Narrator  ", "deep and slow", "jam")
	require.NoError(t, err)
	assert.Equal(t, "Narrator", profile.Name)

	got, err := svc.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "jam", got.BaseVoiceID)

	profiles, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	require.NoError(t, svc.DeleteProfile(ctx, profile.ID))
	assert.ErrorIs(t, svc.DeleteProfile(ctx, profile.ID), ErrProfileNotFound)
}

func TestDeleteProfileLeavesAssets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	profile, err := svc.CreateProfile(ctx, "Narrator", "", "jam")
	require.NoError(t, err)
	asset := createAsset(t, svc, "Story", &profile.ID)

	require.NoError(t, svc.DeleteProfile(ctx, profile.ID))

	got, _, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.NotNil(t, got.VoiceProfileID)
	assert.Equal(t, profile.ID, *got.VoiceProfileID)
	assert.Empty(t, got.VoiceProfileName)
}

func TestParseFilter(t *testing.T) {
	assert.Equal(t, FilterAll, ParseFilter(""))
	assert.Equal(t, FilterAll, ParseFilter("all"))
	assert.Equal(t, FilterAll, ParseFilter("bogus"))
	assert.Equal(t, FilterWithProfile, ParseFilter("with-profile"))
	assert.Equal(t, FilterWithoutProfile, ParseFilter("without-profile"))
}
