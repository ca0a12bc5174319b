package domain

// Theme is the UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ValidTheme reports whether t is one of the three supported themes.
func ValidTheme(t Theme) bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Preference defaults returned when the store has no stored value.
const (
	DefaultCurrency    = "USD"
	DefaultTheme       = ThemeSystem
	DefaultLocale      = "en"
	DefaultAutoRefresh = true
)

// Preferences is the full preference set as exposed to consumers. Favorites
// keep insertion order for display.
type Preferences struct {
	DefaultCurrency string   `json:"default_currency"`
	Theme           Theme    `json:"theme"`
	Locale          string   `json:"locale"`
	AutoRefresh     bool     `json:"auto_refresh"`
	Favorites       []string `json:"favorites"`
}
