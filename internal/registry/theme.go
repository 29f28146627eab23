package registry

import "fmt"

// Theme is a visual style applied across many blocks. The set is closed:
// every block file name must start with one of these names.
type Theme int

const (
	// ThemeStandard is the default theme; out-of-range values map to it.
	ThemeStandard Theme = iota
	ThemeBold
	ThemeMinimal
	ThemeNeobrutalism
)

// Themes lists every theme in canonical order.
var Themes = []Theme{ThemeBold, ThemeMinimal, ThemeNeobrutalism, ThemeStandard}

// ParseTheme maps a theme name to its Theme.
func ParseTheme(name string) (Theme, bool) {
	switch name {
	case "bold":
		return ThemeBold, true
	case "minimal":
		return ThemeMinimal, true
	case "neobrutalism":
		return ThemeNeobrutalism, true
	case "standard":
		return ThemeStandard, true
	default:
		return ThemeStandard, false
	}
}

// String returns the theme's slug.
func (t Theme) String() string {
	switch t {
	case ThemeBold:
		return "bold"
	case ThemeMinimal:
		return "minimal"
	case ThemeNeobrutalism:
		return "neobrutalism"
	default:
		return "standard"
	}
}

// Label returns the human label for the theme.
func (t Theme) Label() string {
	switch t {
	case ThemeBold:
		return "Bold"
	case ThemeMinimal:
		return "Minimal"
	case ThemeNeobrutalism:
		return "Neobrutalism"
	default:
		return "Standard"
	}
}

// Description returns the built-in description of the theme.
func (t Theme) Description() string {
	switch t {
	case ThemeBold:
		return "High-contrast typography with saturated accents and strong borders."
	case ThemeMinimal:
		return "Generous whitespace, muted palette and hairline dividers."
	case ThemeNeobrutalism:
		return "Flat colors, thick outlines and hard offset shadows."
	default:
		return "Balanced defaults suitable for most marketing pages."
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Theme) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Theme) UnmarshalText(text []byte) error {
	theme, ok := ParseTheme(string(text))
	if !ok {
		return fmt.Errorf("unknown theme %q", text)
	}
	*t = theme
	return nil
}
