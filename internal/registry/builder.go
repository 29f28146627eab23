package registry

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/blockreg-labs/blockreg/internal/diag"
)

// SchemaVersion is the manifest format written by this package.
const SchemaVersion = "1.0.0"

// DuplicateNameError reports two distinct leaves deriving the same name. It
// aborts the build.
type DuplicateNameError struct {
	Name  string
	First string
	Other string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate block name %q derived from %s and %s", e.Name, e.First, e.Other)
}

// Code returns the diagnostic code of the error.
func (e *DuplicateNameError) Code() diag.Code { return diag.CodeDuplicateName }

// BuildOptions configure a Builder.
type BuildOptions struct {
	Name       string
	Repository Repository
}

// Builder merges extracted records into a manifest and its indices. A Builder
// is owned by one goroutine and used for one run.
type Builder struct {
	opts     BuildOptions
	records  []*Record
	warnings diag.Warnings
}

// NewBuilder returns an empty builder.
func NewBuilder(opts BuildOptions) *Builder {
	return &Builder{opts: opts}
}

// Add queues a record for the build.
func (b *Builder) Add(r *Record) {
	b.records = append(b.records, r)
}

// Warn records a non-fatal condition found before the merge.
func (b *Builder) Warn(w diag.Warning) {
	b.warnings = append(b.warnings, w)
}

// Warnings returns every warning collected so far.
func (b *Builder) Warnings() diag.Warnings {
	return b.warnings
}

// Build merges the queued records. The only error it returns is a
// *DuplicateNameError; every other anomaly becomes a warning.
func (b *Builder) Build() (*Artifacts, error) {
	records := slices.Clone(b.records)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	byName := make(map[string]*Record, len(records))
	bySymbol := make(map[string]string, len(records))
	for _, r := range records {
		if prev, ok := byName[r.Name]; ok {
			return nil, &DuplicateNameError{Name: r.Name, First: prev.Path, Other: r.Path}
		}
		byName[r.Name] = r
		if owner, ok := bySymbol[r.Symbol]; ok {
			b.warnings.Add(diag.CodeReferentialIntegrity, r.Name,
				"entry symbol %q is already declared by %s; references resolve to %s", r.Symbol, owner, owner)
			continue
		}
		bySymbol[r.Symbol] = r.Name
	}

	a := &Artifacts{
		Manifest: &Manifest{
			SchemaVersion: SchemaVersion,
			Name:          b.opts.Name,
			Repository:    b.opts.Repository,
			Modules:       []Module{},
			Themes:        []ThemeInfo{},
			Blocks:        []Block{},
		},
		Blocks:          make(map[string]*Entry, len(records)),
		FallbackRecords: make(map[string][]map[string]any),
		ContentTypes:    make(map[string]*ContentSchema),
		Themes:          make(map[string][]string),
		Modules:         make(map[string][]string),
	}

	seenModule := make(map[string]bool)
	seenTheme := make(map[string]bool)
	samples := make(map[string][]map[string]any)

	for _, r := range records {
		deps := b.resolveRefs(r, byName, bySymbol)

		if !seenModule[r.Key.Module] {
			seenModule[r.Key.Module] = true
			a.Manifest.Modules = append(a.Manifest.Modules, Module{Name: r.Key.Module, Label: r.ModuleLabel})
		}

		entry := &Entry{
			Name:                 r.Name,
			Kind:                 r.Kind,
			IsLayout:             r.IsLayout,
			Module:               r.Key.Module,
			Label:                r.Label,
			Description:          r.Description,
			Symbol:               r.Symbol,
			Files:                []string{r.Path},
			Dependencies:         nonNil(r.Dependencies),
			RegistryDependencies: deps,
			Binding:              Binding{Fields: nonNil(r.Binding.Fields), Collections: nonNil(r.Binding.Collections)},
			Fallback:             r.Fallback,
		}
		if r.Kind == KindBlock {
			entry.Key = r.Key.String()
			entry.Section = r.Key.Section
			entry.Template = r.Key.Template
			entry.Theme = r.Key.Theme.String()
		}
		a.Blocks[r.Name] = entry

		for _, ct := range r.Binding.Collections {
			if _, ok := a.FallbackRecords[ct]; !ok {
				a.FallbackRecords[ct] = nonNilRecords(r.Fallback.Collections[ct])
			}
			samples[ct] = append(samples[ct], r.Fallback.Collections[ct]...)
		}

		if r.Kind != KindBlock || r.IsLayout {
			continue
		}

		theme := r.Key.Theme.String()
		if !seenTheme[theme] {
			seenTheme[theme] = true
			a.Manifest.Themes = append(a.Manifest.Themes, ThemeInfo{
				Name:        theme,
				Label:       r.ThemeLabel,
				Description: r.ThemeDescription,
			})
		}
		a.Manifest.Blocks = append(a.Manifest.Blocks, Block{
			Name:                 r.Name,
			Description:          r.Description,
			ModuleName:           r.Key.Module,
			SectionName:          r.Key.Section,
			TemplateName:         r.Key.Template,
			ThemeName:            theme,
			Files:                []string{r.Path},
			Dependencies:         entry.Dependencies,
			RegistryDependencies: deps,
		})
		a.Themes[theme] = append(a.Themes[theme], r.Name)
		if !slices.Contains(a.Modules[r.Key.Module], r.Key.Section) {
			a.Modules[r.Key.Module] = append(a.Modules[r.Key.Module], r.Key.Section)
		}
	}

	sort.Slice(a.Manifest.Blocks, func(i, j int) bool { return a.Manifest.Blocks[i].Name < a.Manifest.Blocks[j].Name })
	for _, names := range a.Themes {
		sort.Strings(names)
	}
	for _, sections := range a.Modules {
		sort.Strings(sections)
	}
	for ct, recs := range samples {
		a.ContentTypes[ct] = InferSchema(ct, recs)
	}

	a.Warnings = b.warnings
	return a, nil
}

// resolveRefs maps each raw reference of r to a registry name. References
// match a name first, then an entry symbol. Unresolvable ones are dropped.
func (b *Builder) resolveRefs(r *Record, byName map[string]*Record, bySymbol map[string]string) []string {
	deps := make([]string, 0, len(r.RegistryRefs))
	for _, ref := range r.RegistryRefs {
		name := ""
		if _, ok := byName[ref]; ok {
			name = ref
		} else if n, ok := bySymbol[ref]; ok {
			name = n
		}
		switch {
		case name == "":
			b.warnings.Add(diag.CodeReferentialIntegrity, r.Name, "dependency %q does not resolve; edge dropped", ref)
		case name == r.Name:
			// Self references are not edges.
		default:
			deps = append(deps, name)
		}
	}
	sort.Strings(deps)
	return slices.Compact(deps)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRecords(s []map[string]any) []map[string]any {
	if s == nil {
		return []map[string]any{}
	}
	return s
}

// IsPublic reports whether an entry belongs in the public block listing.
func (e *Entry) IsPublic() bool {
	return e.Kind == KindBlock && !e.IsLayout
}

// Title returns the label, or the name when no label was derived.
func (e *Entry) Title() string {
	if strings.TrimSpace(e.Label) == "" {
		return e.Name
	}
	return e.Label
}
