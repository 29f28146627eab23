package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/server"
	"github.com/blockreg-labs/blockreg/internal/watcher"
)

var serveWatch bool

func init() {
	serveCmd.Flags().String("addr", "", "Listen address")
	serveCmd.Flags().Duration("timeout", 0, "Per-lookup store timeout")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Rebuild and swap the registry when sources change")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry, content resolution and previews over HTTP",
	Long: `Build the registry from source and serve it:

  GET  /                           catalog page
  GET  /registry.json              manifest
  GET  /registry/{name}.json       manifest entry of a public block
  GET  /resolve/{name}             resolved content
  GET  /preview/{name}             HTML preview (?thumbnail=true for the skeleton)
  POST /preview/{name}             HTML preview with explicit JSON content
  GET  /healthz, /metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fsys := workDir()
		a, err := generate(ctx, fsys, cfg)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), a.Warnings)

		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		var cs content.Store
		if s != nil {
			defer closeStore(s)
			cs = s
		}

		snapOpts := server.SnapshotOptions{
			Root:    cfg.Root,
			Store:   cs,
			Timeout: cfg.Resolver.Timeout,
			Logger:  slog.Default(),
		}
		srv := server.New(server.NewSnapshot(a, fsys, snapOpts), server.Options{Logger: slog.Default()})

		if serveWatch {
			stopWatch, err := watchAndSwap(ctx, fsys, srv, snapOpts)
			if err != nil {
				return err
			}
			defer stopWatch()
		}

		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

// watchAndSwap rebuilds on every debounced change and installs the new
// snapshot. A failed rebuild keeps the previous snapshot.
func watchAndSwap(ctx context.Context, fsys billy.Filesystem, srv *server.Server, opts server.SnapshotOptions) (func(), error) {
	w, err := watcher.New(watcher.Config{
		Root:        filepath.FromSlash(cfg.Root),
		Extension:   cfg.Extension,
		DebounceDur: watcher.DefaultConfig(cfg.Root).DebounceDur,
		Logger:      slog.Default(),
	})
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				a, err := generate(ctx, fsys, cfg)
				if err != nil {
					slog.Error("rebuild failed, keeping previous registry", "err", err)
					continue
				}
				srv.Swap(server.NewSnapshot(a, fsys, opts))
				slog.Info("registry rebuilt", "blocks", len(a.Manifest.Blocks), "warnings", len(a.Warnings))
			}
		}
	}()

	return func() { _ = w.Stop() }, nil
}
