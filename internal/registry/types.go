package registry

import (
	"fmt"
	"strings"
)

// Kind classifies a scanned leaf by its position in the tree.
type Kind int

const (
	// KindBlock is a module/section/theme leaf.
	KindBlock Kind = iota
	// KindLayout is a module/name leaf used for page scaffolding.
	KindLayout
	// KindPrimitive is a module/name leaf under a shared module.
	KindPrimitive
)

func (k Kind) String() string {
	switch k {
	case KindLayout:
		return "layout"
	case KindPrimitive:
		return "primitive"
	default:
		return "block"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "block":
		*k = KindBlock
	case "layout":
		*k = KindLayout
	case "primitive":
		*k = KindPrimitive
	default:
		return fmt.Errorf("unknown kind %q", text)
	}
	return nil
}

// Key uniquely identifies a block variant.
type Key struct {
	Module   string
	Section  string
	Template string
	Theme    Theme
}

// String renders the key as module/section/theme-template.
func (k Key) String() string {
	stem := k.Theme.String()
	if k.Template != DefaultTemplate {
		stem += "-" + k.Template
	}
	return k.Module + "/" + k.Section + "/" + stem
}

// DefaultTemplate names the template of a block file named after its theme only.
const DefaultTemplate = "default"

// Leaf is one component file found by Scan.
type Leaf struct {
	Path     string // slash-separated, relative to the scan root
	Kind     Kind
	Module   string
	Section  string // blocks only
	Stem     string // file name without extension
	Theme    Theme  // blocks only
	Template string // blocks only
}

// Binding declares the shape of content a component expects.
type Binding struct {
	Fields      []string `json:"fields"`
	Collections []string `json:"collections"`
}

// Fallback holds the literal content embedded in a component's source.
type Fallback struct {
	Fields      map[string]any              `json:"fields"`
	Collections map[string][]map[string]any `json:"collections"`
}

// Record is the metadata extracted from one leaf. It is immutable once
// returned by Extract.
type Record struct {
	Name         string
	Key          Key // zero for layouts and primitives
	Kind         Kind
	IsLayout     bool
	Path         string
	Symbol       string
	Label        string
	ModuleLabel  string
	Description  string
	Dependencies []string
	// RegistryRefs are unresolved references into the registry namespace:
	// template symbols called from the body and names declared in front matter.
	RegistryRefs []string
	Binding      Binding
	Fallback     Fallback

	ThemeLabel       string
	ThemeDescription string
}

// Repository describes where the block library lives.
type Repository struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

// Module is a content category.
type Module struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ThemeInfo is a theme as written to the manifest.
type ThemeInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Block is one public entry of the manifest.
type Block struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	ModuleName           string   `json:"moduleName"`
	SectionName          string   `json:"sectionName"`
	TemplateName         string   `json:"templateName"`
	ThemeName            string   `json:"themeName"`
	Files                []string `json:"files"`
	Dependencies         []string `json:"dependencies"`
	RegistryDependencies []string `json:"registryDependencies"`
}

// Manifest is the registry document written to registry.json.
type Manifest struct {
	SchemaVersion string      `json:"schemaVersion"`
	Name          string      `json:"name"`
	Repository    Repository  `json:"repository"`
	Modules       []Module    `json:"modules"`
	Themes        []ThemeInfo `json:"themes"`
	Blocks        []Block     `json:"blocks"`
}

// Entry is the block-name index record for any component, including layouts
// and primitives that are kept out of the public manifest.
type Entry struct {
	Name                 string   `json:"name"`
	Kind                 Kind     `json:"kind"`
	IsLayout             bool     `json:"isLayout"`
	Key                  string   `json:"key,omitempty"`
	Module               string   `json:"module"`
	Section              string   `json:"section,omitempty"`
	Template             string   `json:"template,omitempty"`
	Theme                string   `json:"theme,omitempty"`
	Label                string   `json:"label"`
	Description          string   `json:"description,omitempty"`
	Symbol               string   `json:"symbol"`
	Files                []string `json:"files"`
	Dependencies         []string `json:"dependencies"`
	RegistryDependencies []string `json:"registryDependencies"`
	Binding              Binding  `json:"binding"`
	Fallback             Fallback `json:"fallback"`
}

// Path returns the entry's primary source file.
func (e *Entry) Path() string {
	if len(e.Files) == 0 {
		return ""
	}
	return e.Files[0]
}

// ParseKey parses "module/section/theme[-template]".
func ParseKey(s string) (Key, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, false
	}
	theme, template, ok := splitThemeTemplate(parts[2])
	if !ok {
		return Key{}, false
	}
	return Key{Module: parts[0], Section: parts[1], Template: template, Theme: theme}, true
}
