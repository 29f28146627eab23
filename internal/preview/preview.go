// Package preview renders a block as a standalone HTML document that can be
// embedded in an iframe and scaled freely. It has no page chrome and no
// scripts. Thumbnail mode draws a labeled skeleton from the block's binding
// instead of executing its template.
package preview

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/diag"
	"github.com/blockreg-labs/blockreg/internal/frontmatter"
	"github.com/blockreg-labs/blockreg/internal/registry"
)

//go:embed templates/*.html
var templateFS embed.FS

var shell = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ContentType is the media type of every artifact.
const ContentType = "text/html; charset=utf-8"

// maxSkeletonItems caps the placeholder cards drawn per collection.
const maxSkeletonItems = 3

// Error is a structured render failure.
type Error struct {
	Code    diag.Code
	Block   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Block, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Block, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Options select the render mode.
type Options struct {
	Thumbnail bool
}

// Artifact is a rendered document.
type Artifact struct {
	Block       string
	ContentType string
	Thumbnail   bool
	Body        []byte
}

// ServiceOptions configure a Service.
type ServiceOptions struct {
	// Root is the block tree inside the source filesystem.
	Root   string
	Logger *slog.Logger
}

// Service renders blocks from their source templates.
type Service struct {
	reg    *registry.Artifacts
	fsys   billy.Filesystem
	root   string
	logger *slog.Logger
}

// NewService returns a service reading sources from fsys.
func NewService(reg *registry.Artifacts, fsys billy.Filesystem, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root := opts.Root
	if root == "" {
		root = "/"
	}
	return &Service{reg: reg, fsys: fsys, root: root, logger: logger}
}

// Render produces the document of block name. resolved may be nil in
// thumbnail mode. Failures are returned as *Error.
func (s *Service) Render(ctx context.Context, name string, resolved *content.Resolved, opts Options) (*Artifact, error) {
	_, span := otel.Tracer("github.com/blockreg-labs/blockreg/internal/preview").Start(ctx, "preview.render")
	defer span.End()
	span.SetAttributes(attribute.String("block", name), attribute.Bool("thumbnail", opts.Thumbnail))

	art, err := s.render(name, resolved, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return art, nil
}

func (s *Service) render(name string, resolved *content.Resolved, opts Options) (*Artifact, error) {
	entry, ok := s.reg.Lookup(name)
	if !ok {
		return nil, &Error{Code: diag.CodeNotFound, Block: name, Message: "block not found"}
	}

	var body template.HTML
	var err error
	if opts.Thumbnail {
		if err := s.present(entry); err != nil {
			return nil, err
		}
		body, err = skeleton(entry)
	} else {
		body, err = s.execute(entry, resolved)
	}
	if err != nil {
		return nil, err
	}

	theme, _ := registry.ParseTheme(entry.Theme)
	var buf bytes.Buffer
	err = shell.ExecuteTemplate(&buf, "document.html", map[string]any{
		"Block":     entry.Name,
		"Title":     entry.Title(),
		"Style":     StyleFor(theme),
		"Thumbnail": opts.Thumbnail,
		"Body":      body,
	})
	if err != nil {
		return nil, &Error{Code: diag.CodeRenderError, Block: entry.Name, Message: "rendering document", Err: err}
	}
	return &Artifact{Block: entry.Name, ContentType: ContentType, Thumbnail: opts.Thumbnail, Body: buf.Bytes()}, nil
}

// execute parses the block and everything it depends on into one template
// set and runs the block's entry symbol.
func (s *Service) execute(entry *registry.Entry, resolved *content.Resolved) (template.HTML, error) {
	tree, err := registry.BuildDependencyTree(entry.Name, s.reg)
	if err != nil {
		return "", &Error{Code: diag.CodeComponentMissing, Block: entry.Name, Message: "resolving dependencies", Err: err}
	}

	set := template.New(entry.Name).Funcs(FuncMap())
	for _, dep := range registry.FlattenTree(tree) {
		src, err := s.source(dep)
		if err != nil {
			return "", &Error{Code: diag.CodeComponentMissing, Block: entry.Name,
				Message: fmt.Sprintf("source of %s unavailable", dep.Name), Err: err}
		}
		if _, err := set.New(dep.Path()).Parse(string(src)); err != nil {
			return "", &Error{Code: diag.CodeRenderError, Block: entry.Name,
				Message: fmt.Sprintf("parsing %s", dep.Path()), Err: err}
		}
	}

	data := map[string]any{}
	if resolved != nil {
		data = resolved.Data()
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, entry.Symbol, data); err != nil {
		return "", &Error{Code: diag.CodeRenderError, Block: entry.Name, Message: "executing template", Err: err}
	}
	return template.HTML(buf.String()), nil
}

// present checks that the block's own source still exists. The skeleton
// never reads it.
func (s *Service) present(e *registry.Entry) error {
	if e.Path() == "" {
		return &Error{Code: diag.CodeComponentMissing, Block: e.Name, Message: "no source file recorded"}
	}
	if _, err := s.fsys.Stat(path.Join(s.root, e.Path())); err != nil {
		return &Error{Code: diag.CodeComponentMissing, Block: e.Name,
			Message: fmt.Sprintf("source of %s unavailable", e.Name), Err: err}
	}
	return nil
}

func (s *Service) source(e *registry.Entry) ([]byte, error) {
	if e.Path() == "" {
		return nil, errors.New("no source file recorded")
	}
	data, err := util.ReadFile(s.fsys, path.Join(s.root, e.Path()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s does not exist", e.Path())
		}
		return nil, err
	}
	return frontmatter.StripFrontMatter(data)
}

type skeletonCollection struct {
	Name  string
	Items []string
}

// skeleton draws the binding: one bar per field and a row of cards per
// collection.
func skeleton(entry *registry.Entry) (template.HTML, error) {
	colls := make([]skeletonCollection, 0, len(entry.Binding.Collections))
	for _, c := range entry.Binding.Collections {
		n := min(max(len(entry.Fallback.Collections[c]), 1), maxSkeletonItems)
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf("%s %d", c, i+1)
		}
		colls = append(colls, skeletonCollection{Name: c, Items: items})
	}

	var buf bytes.Buffer
	err := shell.ExecuteTemplate(&buf, "skeleton.html", map[string]any{
		"Name":        entry.Name,
		"Label":       entry.Title(),
		"Fields":      entry.Binding.Fields,
		"Collections": colls,
		"IconHTML":    IconDot.SVG(),
	})
	if err != nil {
		return "", &Error{Code: diag.CodeRenderError, Block: entry.Name, Message: "rendering skeleton", Err: err}
	}
	return template.HTML(buf.String()), nil
}

// FuncMap returns the functions available to block templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"icon": func(name string) template.HTML {
			return ParseIcon(name).SVG()
		},
		"themeClass": themeClass,
	}
}
