package preview

import (
	"fmt"
	"html/template"
)

// Icon is one of the glyphs blocks may draw with the icon template
// function. Unknown names map to IconDot.
type Icon int

const (
	IconDot Icon = iota
	IconArrowRight
	IconCheck
	IconStar
	IconUsers
	IconMail
	IconPhone
	IconMapPin
	IconQuote
	IconPlus
)

var iconNames = map[string]Icon{
	"dot":         IconDot,
	"arrow-right": IconArrowRight,
	"check":       IconCheck,
	"star":        IconStar,
	"users":       IconUsers,
	"mail":        IconMail,
	"phone":       IconPhone,
	"map-pin":     IconMapPin,
	"quote":       IconQuote,
	"plus":        IconPlus,
}

// ParseIcon maps a name to its Icon, defaulting to IconDot.
func ParseIcon(name string) Icon {
	if i, ok := iconNames[name]; ok {
		return i
	}
	return IconDot
}

func (i Icon) String() string {
	switch i {
	case IconArrowRight:
		return "arrow-right"
	case IconCheck:
		return "check"
	case IconStar:
		return "star"
	case IconUsers:
		return "users"
	case IconMail:
		return "mail"
	case IconPhone:
		return "phone"
	case IconMapPin:
		return "map-pin"
	case IconQuote:
		return "quote"
	case IconPlus:
		return "plus"
	default:
		return "dot"
	}
}

// path returns the SVG path data drawn on a 24x24 grid.
func (i Icon) path() string {
	switch i {
	case IconArrowRight:
		return "M5 12h14M13 6l6 6-6 6"
	case IconCheck:
		return "M5 13l4 4L19 7"
	case IconStar:
		return "M12 3l2.9 5.9 6.5.9-4.7 4.6 1.1 6.5L12 17.8 6.2 20.9l1.1-6.5L2.6 9.8l6.5-.9z"
	case IconUsers:
		return "M16 19v-1a4 4 0 00-4-4H6a4 4 0 00-4 4v1M9 10a3 3 0 100-6 3 3 0 000 6M22 19v-1a4 4 0 00-3-3.9M16 4.1a3 3 0 010 5.8"
	case IconMail:
		return "M3 6h18v12H3zM3 6l9 7 9-7"
	case IconPhone:
		return "M5 3h4l2 5-2.5 1.5a11 11 0 005 5L15 12l5 2v4a2 2 0 01-2 2A16 16 0 013 5a2 2 0 012-2"
	case IconMapPin:
		return "M12 21s-7-6.2-7-11a7 7 0 0114 0c0 4.8-7 11-7 11zM12 12a2 2 0 100-4 2 2 0 000 4"
	case IconQuote:
		return "M7 7h4v4H8v3H5v-3zM15 7h4v4h-3v3h-3v-3z"
	case IconPlus:
		return "M12 5v14M5 12h14"
	default:
		return "M12 10a2 2 0 100 4 2 2 0 000-4"
	}
}

// SVG renders the icon inline.
func (i Icon) SVG() template.HTML {
	return template.HTML(fmt.Sprintf(
		`<svg class="icon icon-%s" width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" aria-hidden="true"><path d="%s"/></svg>`,
		i, i.path()))
}
