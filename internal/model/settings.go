package model

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID = "default"

// Settings is the platform-wide configuration singleton.
type Settings struct {
	ID                 string    `json:"id"`
	PlatformName       string    `json:"platformName"`
	PlatformSubtitle   string    `json:"platformSubtitle"`
	PrimaryColor       string    `json:"primaryColor"`
	MembershipFee      float64   `json:"membershipFee"`
	EnableRegistration bool      `json:"enableRegistration"`
	LogoURL            *string   `json:"logoUrl"`
	InstapayNumber     *string   `json:"instapayNumber"`
	InstapayName       *string   `json:"instapayName"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DefaultSettings is what a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		ID:                 SettingsID,
		PlatformName:       "عضويتي",
		PlatformSubtitle:   "اتحاد بشبابها",
		PrimaryColor:       "#1e3a5f",
		MembershipFee:      0,
		EnableRegistration: true,
	}
}
