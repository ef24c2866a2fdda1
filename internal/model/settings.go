package model

// Language is a supported UI language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// AutoDelete is the history retention policy.
type AutoDelete string

const (
	AutoDeleteNever  AutoDelete = "never"
	AutoDelete7Days  AutoDelete = "7"
	AutoDelete30Days AutoDelete = "30"
)

// Days returns the retention window in days, or 0 for never.
func (a AutoDelete) Days() int {
	switch a {
	case AutoDelete7Days:
		return 7
	case AutoDelete30Days:
		return 30
	default:
		return 0
	}
}

// Settings is the per-device preference record.
type Settings struct {
	Language     Language   `json:"language" yaml:"language"`
	PrivacyMode  bool       `json:"privacyMode" yaml:"privacy_mode"`
	SaveHistory  bool       `json:"saveHistory" yaml:"save_history"`
	AutoDelete   AutoDelete `json:"autoDelete" yaml:"auto_delete"`
	AdvancedScan bool       `json:"advancedScan" yaml:"advanced_scan"`
}

// DefaultSettings are used for any field never stored.
func DefaultSettings() Settings {
	return Settings{
		Language:     LanguageEnglish,
		PrivacyMode:  true,
		SaveHistory:  true,
		AutoDelete:   AutoDeleteNever,
		AdvancedScan: false,
	}
}
