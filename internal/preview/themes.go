package preview

import (
	"fmt"
	"html/template"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

// Style is the palette a theme renders with.
type Style struct {
	Class      string
	Background string
	Foreground string
	Accent     string
	Border     string
	Radius     string
	Shadow     string
}

// StyleFor returns the style of a theme. Themes without a dedicated style
// use the standard one.
func StyleFor(t registry.Theme) Style {
	switch t {
	case registry.ThemeBold:
		return Style{
			Class: "theme-bold", Background: "#0f172a", Foreground: "#f8fafc",
			Accent: "#f97316", Border: "3px solid #f97316", Radius: "12px", Shadow: "none",
		}
	case registry.ThemeMinimal:
		return Style{
			Class: "theme-minimal", Background: "#ffffff", Foreground: "#374151",
			Accent: "#6b7280", Border: "1px solid #e5e7eb", Radius: "2px", Shadow: "none",
		}
	case registry.ThemeNeobrutalism:
		return Style{
			Class: "theme-neobrutalism", Background: "#fef08a", Foreground: "#000000",
			Accent: "#ec4899", Border: "4px solid #000000", Radius: "0", Shadow: "6px 6px 0 #000000",
		}
	default:
		return Style{
			Class: "theme-standard", Background: "#f9fafb", Foreground: "#111827",
			Accent: "#2563eb", Border: "1px solid #d1d5db", Radius: "8px", Shadow: "0 1px 3px #0000001a",
		}
	}
}

// CSS renders the custom properties of the style. Every value is a
// constant from StyleFor.
func (s Style) CSS() template.CSS {
	return template.CSS(fmt.Sprintf(
		"--br-bg:%s;--br-fg:%s;--br-accent:%s;--br-border:%s;--br-radius:%s;--br-shadow:%s",
		s.Background, s.Foreground, s.Accent, s.Border, s.Radius, s.Shadow))
}

// themeClass is exposed to block templates.
func themeClass(name string) string {
	t, _ := registry.ParseTheme(name)
	return StyleFor(t).Class
}
