package frontmatter

import "sort"

// Meta is the decoded front matter of a block source file.
type Meta struct {
	Description          string                      `json:"description,omitempty"`
	Fields               map[string]any              `json:"fields,omitempty"`
	Collections          map[string][]map[string]any `json:"collections,omitempty"`
	Dependencies         []string                    `json:"dependencies,omitempty"`
	RegistryDependencies []string                    `json:"registryDependencies,omitempty"`
	Theme                *ThemeOverride              `json:"theme,omitempty"`
	Module               *ModuleOverride             `json:"module,omitempty"`
}

// ThemeOverride replaces the built-in label/description of a theme.
type ThemeOverride struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// ModuleOverride replaces the derived label of a module.
type ModuleOverride struct {
	Label string `json:"label,omitempty"`
}

// FieldNames returns the declared scalar field names in sorted order.
func (m *Meta) FieldNames() []string {
	return sortedKeys(m.Fields)
}

// CollectionNames returns the declared collection names in sorted order.
func (m *Meta) CollectionNames() []string {
	names := make([]string, 0, len(m.Collections))
	for k := range m.Collections {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
