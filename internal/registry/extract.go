package registry

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"text/template/parse"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blockreg-labs/blockreg/internal/frontmatter"
)

// DefaultLayoutPattern flags page-scaffolding sections.
const DefaultLayoutPattern = `^(header|footer)(-.*)?$`

// builtinFuncs are the text/template predefined functions. Calls to them are
// not dependencies.
var builtinFuncs = map[string]bool{
	"and": true, "call": true, "html": true, "index": true, "slice": true,
	"js": true, "len": true, "not": true, "or": true, "print": true,
	"printf": true, "println": true, "urlquery": true,
	"eq": true, "ge": true, "gt": true, "le": true, "lt": true, "ne": true,
}

// ExtractOptions configure Extract.
type ExtractOptions struct {
	// LayoutPattern flags three-segment blocks whose section is page
	// scaffolding. Nil means DefaultLayoutPattern.
	LayoutPattern *regexp.Regexp
}

// ExtractionError reports a leaf with no derivable metadata. Callers skip the
// leaf with a warning.
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var defaultLayoutRe = regexp.MustCompile(DefaultLayoutPattern)

// Extract derives a Record from one leaf and its file contents. It performs no
// I/O and is safe to call concurrently.
func Extract(leaf Leaf, data []byte, opts ExtractOptions) (*Record, error) {
	layoutRe := opts.LayoutPattern
	if layoutRe == nil {
		layoutRe = defaultLayoutRe
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, &ExtractionError{Path: leaf.Path, Reason: "invalid front matter", Err: err}
	}

	trees, err := parseTemplate(leaf.Path, doc.Body)
	if err != nil {
		return nil, &ExtractionError{Path: leaf.Path, Reason: "invalid template", Err: err}
	}

	symbol := entrySymbol(trees)
	if symbol == "" {
		return nil, &ExtractionError{Path: leaf.Path, Reason: "no exported {{define}} entry point"}
	}

	refs, funcs := references(trees)
	meta := doc.Meta

	rec := &Record{
		Kind:        leaf.Kind,
		Path:        leaf.Path,
		Symbol:      symbol,
		Description: strings.TrimSpace(meta.Description),
		ModuleLabel: titleCase(leaf.Module),
		Binding: Binding{
			Fields:      meta.FieldNames(),
			Collections: meta.CollectionNames(),
		},
		Fallback: Fallback{
			Fields:      orEmpty(meta.Fields),
			Collections: orEmptyCollections(meta.Collections),
		},
	}

	switch leaf.Kind {
	case KindBlock:
		rec.Key = Key{Module: leaf.Module, Section: leaf.Section, Template: leaf.Template, Theme: leaf.Theme}
		rec.Name = blockName(rec.Key)
		rec.IsLayout = layoutRe.MatchString(leaf.Section)
		rec.ThemeLabel = leaf.Theme.Label()
		rec.ThemeDescription = leaf.Theme.Description()
		if meta.Theme != nil {
			if meta.Theme.Label != "" {
				rec.ThemeLabel = meta.Theme.Label
			}
			if meta.Theme.Description != "" {
				rec.ThemeDescription = meta.Theme.Description
			}
		}
	default:
		rec.Key = Key{Module: leaf.Module}
		rec.Name = leaf.Module + "-" + leaf.Stem
		rec.IsLayout = leaf.Kind == KindLayout
	}
	rec.Label = titleCase(rec.Name)
	if meta.Module != nil && meta.Module.Label != "" {
		rec.ModuleLabel = meta.Module.Label
	}

	rec.Dependencies = sortedUnique(append(slices.Clone(meta.Dependencies), funcs...))
	rec.RegistryRefs = sortedUnique(append(slices.Clone(meta.RegistryDependencies), refs...))

	return rec, nil
}

// blockName derives section-theme[-template].
func blockName(k Key) string {
	name := k.Section + "-" + k.Theme.String()
	if k.Template != DefaultTemplate {
		name += "-" + k.Template
	}
	return name
}

// titleCase turns "about-team" into "About Team".
func titleCase(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// parseTemplate parses body into its named trees without checking that
// functions exist, since the function map is only known at render time.
func parseTemplate(name string, body []byte) (map[string]*parse.Tree, error) {
	t := parse.New(name)
	t.Mode = parse.SkipFuncCheck
	trees := make(map[string]*parse.Tree)
	if _, err := t.Parse(string(body), "", "", trees); err != nil {
		return nil, err
	}
	delete(trees, name)
	return trees, nil
}

// entrySymbol returns the first exported define in source order.
func entrySymbol(trees map[string]*parse.Tree) string {
	best := ""
	bestPos := parse.Pos(-1)
	for name, tree := range trees {
		if !isExported(name) || tree.Root == nil {
			continue
		}
		pos := tree.Root.Position()
		if bestPos < 0 || pos < bestPos || (pos == bestPos && name < best) {
			best, bestPos = name, pos
		}
	}
	return best
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// references walks every tree and collects template calls that leave the
// file and non-builtin function identifiers.
func references(trees map[string]*parse.Tree) (templates, funcs []string) {
	var walk func(parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, c := range n.Cmds {
				walk(c)
			}
		case *parse.CommandNode:
			for _, a := range n.Args {
				walk(a)
			}
		case *parse.ChainNode:
			walk(n.Node)
		case *parse.IdentifierNode:
			if !builtinFuncs[n.Ident] {
				funcs = append(funcs, n.Ident)
			}
		case *parse.IfNode:
			walkBranch(walk, &n.BranchNode)
		case *parse.RangeNode:
			walkBranch(walk, &n.BranchNode)
		case *parse.WithNode:
			walkBranch(walk, &n.BranchNode)
		case *parse.TemplateNode:
			if _, local := trees[n.Name]; !local {
				templates = append(templates, n.Name)
			}
			walk(n.Pipe)
		}
	}

	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		walk(trees[name].Root)
	}
	return templates, funcs
}

func walkBranch(walk func(parse.Node), b *parse.BranchNode) {
	walk(b.Pipe)
	walk(b.List)
	if b.ElseList != nil {
		walk(b.ElseList)
	}
}

func sortedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyCollections(m map[string][]map[string]any) map[string][]map[string]any {
	if m == nil {
		return map[string][]map[string]any{}
	}
	return m
}
