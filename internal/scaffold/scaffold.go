package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Block templates contain {{ }} actions of their own, so the scaffold uses
// square-bracket delimiters.
var blockTmpl = template.Must(
	template.New("block.html.tmpl").Delims("[[", "]]").ParseFS(templateFS, "templates/block.html.tmpl"),
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// BlockData holds the template variables of a new block.
type BlockData struct {
	Module      string         // e.g. "about"
	Section     string         // e.g. "about-team"
	Theme       registry.Theme // e.g. registry.ThemeBold
	Template    string         // e.g. "cards"; empty means the default template
	Description string
	Fields      []string // scalar field names
	Collection  string   // optional collection name
}

// Name is the registry name the block will be published under.
func (d *BlockData) Name() string {
	name := d.Section + "-" + d.Theme.String()
	if d.Template != "" && d.Template != registry.DefaultTemplate {
		name += "-" + d.Template
	}
	return name
}

// Symbol is the PascalCase entry define, e.g. "AboutTeamBoldCards".
func (d *BlockData) Symbol() string {
	caser := cases.Title(language.English)
	var b strings.Builder
	for _, part := range strings.Split(d.Name(), "-") {
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// Path is the leaf path relative to the block root.
func (d *BlockData) Path() string {
	stem := d.Theme.String()
	if d.Template != "" && d.Template != registry.DefaultTemplate {
		stem += "-" + d.Template
	}
	return path.Join(d.Module, d.Section, stem+".html")
}

// Placeholder returns sample text for a field.
func (d *BlockData) Placeholder(field string) string {
	return fmt.Sprintf("%q", cases.Title(language.English).String(strings.ReplaceAll(field, "_", " ")))
}

func (d *BlockData) validate() error {
	for label, v := range map[string]string{"module": d.Module, "section": d.Section} {
		if !slugPattern.MatchString(v) {
			return fmt.Errorf("%s %q must be a lowercase slug", label, v)
		}
	}
	if d.Template != "" && !slugPattern.MatchString(d.Template) {
		return fmt.Errorf("template %q must be a lowercase slug", d.Template)
	}
	for _, f := range d.Fields {
		if !identPattern.MatchString(f) {
			return fmt.Errorf("field %q is not a valid identifier", f)
		}
	}
	if d.Collection != "" && !identPattern.MatchString(d.Collection) {
		return fmt.Errorf("collection %q is not a valid identifier", d.Collection)
	}
	if d.Description == "" {
		d.Description = fmt.Sprintf("%s block in the %s theme.", d.Section, d.Theme.Label())
	}
	return nil
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	Name   string
	Path   string
	Symbol string
}

// Block writes a new block under root in fsys. It refuses to overwrite an
// existing leaf and checks that the generated source extracts cleanly.
func Block(fsys billy.Filesystem, root string, data *BlockData) (*Result, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	rel := data.Path()
	full := path.Join(root, rel)
	if _, err := fsys.Stat(full); err == nil {
		return nil, fmt.Errorf("%s already exists; remove it first", full)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", full, err)
	}

	var buf bytes.Buffer
	if err := blockTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing block template: %w", err)
	}

	leaf := registry.Leaf{
		Path:     rel,
		Kind:     registry.KindBlock,
		Module:   data.Module,
		Section:  data.Section,
		Stem:     path.Base(strings.TrimSuffix(rel, ".html")),
		Theme:    data.Theme,
		Template: orDefault(data.Template),
	}
	rec, err := registry.Extract(leaf, buf.Bytes(), registry.ExtractOptions{})
	if err != nil {
		return nil, fmt.Errorf("generated block does not extract: %w", err)
	}

	if err := fsys.MkdirAll(path.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", path.Dir(full), err)
	}
	if err := util.WriteFile(fsys, full, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", full, err)
	}
	return &Result{Name: rec.Name, Path: full, Symbol: rec.Symbol}, nil
}

func orDefault(name string) string {
	if name == "" {
		return registry.DefaultTemplate
	}
	return name
}
