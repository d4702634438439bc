package models

import "time"

// Default voice settings applied at registration and merged over any
// account whose stored settings predate a field.
const (
	DefaultLanguage           = "english"
	DefaultVoiceSimilarity    = 0.85
	DefaultStability          = 0.70
	DefaultAddBackgroundSound = true
	DefaultBackgroundVolume   = 0.5
)

type Account struct {
	ID            string     `json:"user_id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"-"`
	Settings      Settings   `json:"settings"`
	VoiceCloneID  *string    `json:"voice_clone_id"`
	SessionActive bool       `json:"-"`
	CharCount     int        `json:"-"`
	LastCharReset time.Time  `json:"-"`
	UpdatedAt     *time.Time `json:"-"`
}

// Settings is the per-account voice preferences sub-record. All
// coefficients are clamped to [0.0, 1.0] at the API boundary.
type Settings struct {
	Language           string  `json:"language"`
	VoiceSimilarity    float64 `json:"voice_similarity"`
	Stability          float64 `json:"stability"`
	AddBackgroundSound bool    `json:"add_background_sound"`
	BackgroundVolume   float64 `json:"background_volume"`
}

func DefaultSettings() Settings {
	return Settings{
		Language:           DefaultLanguage,
		VoiceSimilarity:    DefaultVoiceSimilarity,
		Stability:          DefaultStability,
		AddBackgroundSound: DefaultAddBackgroundSound,
		BackgroundVolume:   DefaultBackgroundVolume,
	}
}

func (a *Account) GetVoiceCloneID() string {
	if a.VoiceCloneID != nil {
		return *a.VoiceCloneID
	}
	return ""
}

// ActivationCode is the single-use gate for registration. The same code
// can additionally be spent once on a password reset; the two uses are
// tracked independently.
type ActivationCode struct {
	ID                   string
	Code                 string
	Used                 bool
	UsedBy               *string
	UsedAt               *time.Time
	UsedForPasswordReset bool
	PasswordResetBy      *string
	PasswordResetAt      *time.Time
	CreatedAt            time.Time
}
