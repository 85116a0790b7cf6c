package schema

import "time"

// AudioAsset is the durable artifact produced by a successful synthesis.
// The metadata record is immutable once created; duration is never
// populated by this pipeline and stays absent until a probing step exists.
type AudioAsset struct {
	ID          string   `json:"id" gorm:"primaryKey"`
	Title       string   `json:"title"`
	SourceText  string   `json:"text" gorm:"column:source_text"`
	StoragePath string   `json:"-" gorm:"column:storage_path"`
	Format      string   `json:"format"`
	Speed       float64  `json:"speed"`
	Volume      float64  `json:"volume"`
	Duration    *float64 `json:"duration,omitempty"`

	VoiceProfileID   *string `json:"voiceProfileId,omitempty" gorm:"column:voice_profile_id"`
	VoiceProfileName string  `json:"voiceProfileName,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName sets the table used by the metadata store.
func (AudioAsset) TableName() string {
	return "audio_assets"
}

// VoiceProfile is a named, reusable synthesis preset. Assets reference a
// profile by id; deleting a profile leaves those references dangling and
// display degrades to an empty name.
type VoiceProfile struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BaseVoiceID string    `json:"baseVoiceId" gorm:"column:base_voice_id"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName sets the table used by the metadata store.
func (VoiceProfile) TableName() string {
	return "voice_profiles"
}
