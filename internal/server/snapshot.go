package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/yuin/goldmark"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/preview"
	"github.com/blockreg-labs/blockreg/internal/registry"
)

// SnapshotOptions configure NewSnapshot.
type SnapshotOptions struct {
	// Root is the block tree inside the source filesystem.
	Root    string
	Store   content.Store
	Timeout time.Duration
	Logger  *slog.Logger
}

// Snapshot is one immutable registry build together with the resolver and
// renderer that read it. The server swaps whole snapshots.
type Snapshot struct {
	Artifacts *registry.Artifacts
	Resolver  *content.Resolver
	Preview   *preview.Service

	catalogOnce sync.Once
	catalog     []byte
	catalogErr  error
}

// NewSnapshot wires a resolver and a preview service to a build.
func NewSnapshot(a *registry.Artifacts, fsys billy.Filesystem, opts SnapshotOptions) *Snapshot {
	return &Snapshot{
		Artifacts: a,
		Resolver: content.NewResolver(a, content.Options{
			Store:   opts.Store,
			Timeout: opts.Timeout,
			Logger:  opts.Logger,
		}),
		Preview: preview.NewService(a, fsys, preview.ServiceOptions{Root: opts.Root, Logger: opts.Logger}),
	}
}

type catalogBlock struct {
	Name        string
	Theme       string
	Section     string
	Description template.HTML
}

type catalogModule struct {
	Name   string
	Label  string
	Blocks []catalogBlock
}

// Catalog renders the index page once per snapshot.
func (s *Snapshot) Catalog() ([]byte, error) {
	s.catalogOnce.Do(func() {
		s.catalog, s.catalogErr = renderCatalog(s.Artifacts)
	})
	return s.catalog, s.catalogErr
}

func renderCatalog(a *registry.Artifacts) ([]byte, error) {
	md := goldmark.New()

	byModule := make(map[string][]catalogBlock)
	for _, b := range a.Manifest.Blocks {
		var desc bytes.Buffer
		if b.Description != "" {
			if err := md.Convert([]byte(b.Description), &desc); err != nil {
				return nil, err
			}
		}
		byModule[b.ModuleName] = append(byModule[b.ModuleName], catalogBlock{
			Name:        b.Name,
			Theme:       b.ThemeName,
			Section:     b.SectionName,
			Description: template.HTML(desc.String()),
		})
	}

	var modules []catalogModule
	for _, m := range a.Manifest.Modules {
		blocks := byModule[m.Name]
		if len(blocks) == 0 {
			continue
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].Name < blocks[j].Name })
		modules = append(modules, catalogModule{Name: m.Name, Label: m.Label, Blocks: blocks})
	}

	var buf bytes.Buffer
	err := pages.ExecuteTemplate(&buf, "catalog.html", map[string]any{
		"Name":    a.Manifest.Name,
		"Repo":    a.Manifest.Repository,
		"Themes":  a.Manifest.Themes,
		"Modules": modules,
	})
	return buf.Bytes(), err
}
