package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/blockreg-labs/blockreg/internal/config"
	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/gitinfo"
	"github.com/blockreg-labs/blockreg/internal/registry"
	"github.com/blockreg-labs/blockreg/internal/store"
)

// workDir is the filesystem every command resolves relative paths in.
func workDir() billy.Filesystem {
	return osfs.New(".")
}

// generateOptions turns the loaded configuration into a build request. The
// repository comes from git unless the config overrides it.
func generateOptions(c *config.Config) (registry.GenerateOptions, error) {
	layoutRe, err := regexp.Compile(c.LayoutPattern)
	if err != nil {
		return registry.GenerateOptions{}, fmt.Errorf("invalid layout_pattern: %w", err)
	}

	repo, err := gitinfo.Detect(".")
	if err != nil {
		slog.Debug("repository detection failed", "err", err)
	}
	if c.Repository.Provider != "" {
		repo.Provider = c.Repository.Provider
	}
	if c.Repository.URL != "" {
		repo.URL = c.Repository.URL
	}

	return registry.GenerateOptions{
		Build: registry.BuildOptions{
			Name:       c.Name,
			Repository: registry.Repository{Provider: repo.Provider, URL: repo.URL},
		},
		Scan: registry.ScanOptions{
			Root:          c.Root,
			Extension:     c.Extension,
			SharedModules: c.SharedModules,
		},
		Extract: registry.ExtractOptions{LayoutPattern: layoutRe},
		Workers: c.Build.Workers,
		Logger:  slog.Default(),
	}, nil
}

// generate builds the registry from the block tree in memory.
func generate(ctx context.Context, fsys billy.Filesystem, c *config.Config) (*registry.Artifacts, error) {
	opts, err := generateOptions(c)
	if err != nil {
		return nil, err
	}
	return registry.Generate(ctx, fsys, opts)
}

// openRegistry loads the artifacts under the output directory, building them
// in memory when nothing has been written yet.
func openRegistry(ctx context.Context, fsys billy.Filesystem, c *config.Config) (*registry.Artifacts, error) {
	a, err := registry.Load(fsys, c.Out)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading registry from %s: %w", c.Out, err)
	}
	slog.Debug("no built registry, generating from source", "out", c.Out, "root", c.Root)
	return generate(ctx, fsys, c)
}

// openStore opens the configured collection store. A nil store means the
// resolver falls back to embedded data.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	s, err := store.Open(ctx, c.Store)
	if errors.Is(err, store.ErrNoStore) {
		return nil, nil
	}
	return s, err
}

// closeStore releases s, logging rather than returning a close failure.
func closeStore(s io.Closer) {
	if err := s.Close(); err != nil {
		slog.Warn("closing store", "err", err)
	}
}

// newResolver wires a resolver to a and the configured store. The returned
// func releases the store.
func newResolver(ctx context.Context, a *registry.Artifacts, c *config.Config) (*content.Resolver, func(), error) {
	s, err := openStore(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	opts := content.Options{Timeout: c.Resolver.Timeout, Logger: slog.Default()}
	release := func() {}
	if s != nil {
		opts.Store = s
		release = func() { closeStore(s) }
	}
	return content.NewResolver(a, opts), release, nil
}
