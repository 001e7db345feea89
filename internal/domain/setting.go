package domain

import "github.com/google/uuid"

// Known setting names
const (
	SettingTrackHistory           = "track_history"
	SettingEnableImageFetching    = "enable_image_fetching"
	SettingNoAuthMode             = "no_auth_mode"
	SettingUseDesktopInterface    = "use_desktop_interface"
	SettingInstallPromptDismissed = "install_prompt_dismissed"
)

// DefaultSettings is consulted whenever a setting has never been written
var DefaultSettings = map[string]string{
	SettingTrackHistory:           "true",
	SettingEnableImageFetching:    "true",
	SettingNoAuthMode:             "false",
	SettingUseDesktopInterface:    "false",
	SettingInstallPromptDismissed: "false",
}

// DefaultSetting returns the documented default for name, or "" if none exists
func DefaultSetting(name string) string {
	return DefaultSettings[name]
}

// Setting is a single stored preference
type Setting struct {
	UserID *uuid.UUID `json:"user_id"`
	Name   string     `json:"setting_name"`
	Value  string     `json:"setting_value"`
}

// SettingScope identifies who owns a setting: one user, or the whole system.
// The zero value is not a valid scope; use UserScope or SystemScope.
type SettingScope struct {
	userID uuid.UUID
	system bool
}

// UserScope returns the scope owned by a single user
func UserScope(userID uuid.UUID) SettingScope {
	return SettingScope{userID: userID}
}

// SystemScope returns the system-wide scope
func SystemScope() SettingScope {
	return SettingScope{system: true}
}

// IsSystem reports whether the scope is system-wide
func (s SettingScope) IsSystem() bool {
	return s.system
}

// UserID returns the owning user, or false for the system scope
func (s SettingScope) UserID() (uuid.UUID, bool) {
	if s.system {
		return uuid.Nil, false
	}
	return s.userID, true
}

func (s SettingScope) String() string {
	if s.system {
		return "system"
	}
	return "user:" + s.userID.String()
}
