package preferences

import "github.com/campushr/hrms-portal/internal/storage"

// Theme is the display theme selection. ThemeSystem defers to the OS-level
// color scheme signal.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Preferences are the user-tunable notification and display settings.
type Preferences struct {
	EmailNotifications bool   `json:"email_notifications"`
	SMSNotifications   bool   `json:"sms_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	Theme              Theme  `json:"theme"`
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
}

// Defaults are applied synchronously when no cache exists so first paint
// never waits on the network.
func Defaults() Preferences {
	return Preferences{
		EmailNotifications: true,
		SMSNotifications:   false,
		PushNotifications:  true,
		Theme:              ThemeLight,
		Language:           "en",
		Timezone:           "UTC",
	}
}

// Partial is a client-side partial update; nil fields are left untouched.
type Partial struct {
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	SMSNotifications   *bool   `json:"sms_notifications,omitempty"`
	PushNotifications  *bool   `json:"push_notifications,omitempty"`
	Theme              *Theme  `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
}

func (p Partial) IsEmpty() bool {
	return p.EmailNotifications == nil &&
		p.SMSNotifications == nil &&
		p.PushNotifications == nil &&
		p.Theme == nil &&
		p.Language == nil &&
		p.Timezone == nil
}

// Cache keys within the preferences namespace.
const (
	keyCache       = storage.NamespacePreferences + "cache"
	keyCacheExpiry = storage.NamespacePreferences + "cache_expiry"
)

func cacheKeys() []string {
	return []string{keyCache, keyCacheExpiry}
}
