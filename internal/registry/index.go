package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/blockreg-labs/blockreg/internal/diag"
)

// Artifact file names, relative to the output directory.
const (
	ManifestFile        = "registry.json"
	BlocksIndexFile     = "index/blocks.json"
	FallbackRecordsFile = "index/fallback-records.json"
	ContentTypesFile    = "index/content-types.json"
	ThemesIndexFile     = "index/themes.json"
	ModulesIndexFile    = "index/modules.json"
)

// Artifacts is everything one build produces. After Build or Load returns,
// an Artifacts value is read-only and may be shared between goroutines.
type Artifacts struct {
	Manifest        *Manifest
	Blocks          map[string]*Entry
	FallbackRecords map[string][]map[string]any
	ContentTypes    map[string]*ContentSchema
	Themes          map[string][]string
	Modules         map[string][]string

	// Warnings collected by the build. They are not persisted.
	Warnings diag.Warnings
}

// Lookup returns the index entry for a block name or a module/section/theme
// key.
func (a *Artifacts) Lookup(ref string) (*Entry, bool) {
	if e, ok := a.Blocks[ref]; ok {
		return e, true
	}
	if strings.Contains(ref, "/") {
		if key, ok := ParseKey(ref); ok {
			e, ok := a.Blocks[blockName(key)]
			if ok && e.Key == key.String() {
				return e, true
			}
		}
	}
	return nil, false
}

// PublicBlock returns the manifest entry of a public block.
func (a *Artifacts) PublicBlock(name string) (*Block, bool) {
	i := sort.Search(len(a.Manifest.Blocks), func(i int) bool { return a.Manifest.Blocks[i].Name >= name })
	if i < len(a.Manifest.Blocks) && a.Manifest.Blocks[i].Name == name {
		return &a.Manifest.Blocks[i], true
	}
	return nil, false
}

// ContentSchema returns the inferred schema of a content type.
func (a *Artifacts) ContentSchema(contentType string) (*ContentSchema, bool) {
	s, ok := a.ContentTypes[contentType]
	return s, ok && s != nil
}

// Names returns every indexed name in sorted order.
func (a *Artifacts) Names() []string {
	names := make([]string, 0, len(a.Blocks))
	for name := range a.Blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// files maps each artifact file to its encoded content.
func (a *Artifacts) files() (map[string][]byte, error) {
	docs := map[string]any{
		ManifestFile:        a.Manifest,
		BlocksIndexFile:     a.Blocks,
		FallbackRecordsFile: a.FallbackRecords,
		ContentTypesFile:    a.ContentTypes,
		ThemesIndexFile:     a.Themes,
		ModulesIndexFile:    a.Modules,
	}
	out := make(map[string][]byte, len(docs))
	for name, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		out[name] = append(data, '\n')
	}
	return out, nil
}

// ContentSchema is the JSON Schema inferred for a content type from the
// fallback records that declare it.
type ContentSchema struct {
	Schema     string                     `json:"$schema"`
	Title      string                     `json:"title"`
	Type       string                     `json:"type"`
	Properties map[string]*PropertySchema `json:"properties"`
	Required   []string                   `json:"required"`
}

// PropertySchema lists the JSON types observed for one property. An empty
// list leaves the type unconstrained.
type PropertySchema struct {
	Type []string `json:"type,omitempty"`
}

// InferSchema builds a schema from sample records. A property is required
// when every sample carries it with a non-null value somewhere; its type is
// the union of the observed JSON types. A property only ever seen as null is
// a placeholder and accepts any type.
func InferSchema(contentType string, samples []map[string]any) *ContentSchema {
	s := &ContentSchema{
		Schema:     "https://json-schema.org/draft/2020-12/schema",
		Title:      contentType,
		Type:       "object",
		Properties: make(map[string]*PropertySchema),
		Required:   []string{},
	}

	counts := make(map[string]int)
	for _, rec := range samples {
		for k, v := range rec {
			counts[k]++
			p, ok := s.Properties[k]
			if !ok {
				p = &PropertySchema{}
				s.Properties[k] = p
			}
			t := jsonType(v)
			if !containsString(p.Type, t) {
				p.Type = append(p.Type, t)
				sort.Strings(p.Type)
			}
		}
	}
	for k, n := range counts {
		p := s.Properties[k]
		if len(p.Type) == 1 && p.Type[0] == "null" {
			p.Type = nil
			continue
		}
		if n == len(samples) {
			s.Required = append(s.Required, k)
		}
	}
	sort.Strings(s.Required)
	return s
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "string"
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
