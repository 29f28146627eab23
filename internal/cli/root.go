package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/branding"
	"github.com/blockreg-labs/blockreg/internal/config"
	"github.com/blockreg-labs/blockreg/internal/tracing"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configPath string
	verbose    bool

	// cfg is loaded by the root pre-run for every command except config.
	cfg    *config.Config
	tracer *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` builds a component registry from a tree of themed block templates,
resolves their content from explicit input, an external store or embedded fallback
data, and renders standalone HTML previews.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config get/set operate on the file itself and must work even when
		// the file does not validate.
		if p := cmd.Parent(); p != nil && p.Name() == "config" {
			tracer = nil
			return nil
		}

		c, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c

		logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log, verbose)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		tracer, err = tracing.Setup(cmd.Context(), cfg.Tracing, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return tracer.Shutdown(context.Background())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./"+config.FileName()+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("root", "", "Block tree root")
	pf.String("out", "", "Registry output directory")
	pf.String("name", "", "Registry name")
	pf.String("store", "", "Collection store driver (none, memory, sqlite, s3)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func newLogger(w io.Writer, lc config.Log, verbose bool) (*slog.Logger, error) {
	var level slog.Level
	if verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(lc.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", lc.Format)
	}
}
