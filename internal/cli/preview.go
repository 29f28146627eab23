package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/preview"
)

var (
	previewThumbnail   bool
	previewContentFile string
	previewOutput      string
)

func init() {
	previewCmd.Flags().BoolVar(&previewThumbnail, "thumbnail", false, "Render the content-free skeleton")
	previewCmd.Flags().StringVar(&previewContentFile, "content", "", "JSON file with explicit fields and collections (- for stdin)")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Write the document to a file instead of stdout")
	previewCmd.Flags().Duration("timeout", 0, "Per-lookup store timeout")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Render a standalone HTML preview of a block",
	Long: `Render a block into a standalone HTML document with its theme applied.

Examples:
  blockreg preview about-team-bold-cards -o team.html
  blockreg preview hero-standard --thumbnail
  echo '{"fields":{"title":"Hi"}}' | blockreg preview hero-standard --content -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]
		fsys := workDir()

		a, err := openRegistry(ctx, fsys, cfg)
		if err != nil {
			return err
		}

		var resolved *content.Resolved
		if !previewThumbnail {
			explicit, err := readContent(cmd.InOrStdin(), previewContentFile)
			if err != nil {
				return err
			}
			resolver, release, err := newResolver(ctx, a, cfg)
			if err != nil {
				return err
			}
			defer release()

			resolved, err = resolver.Resolve(ctx, name, explicit)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), resolved.Warnings)
		}

		svc := preview.NewService(a, fsys, preview.ServiceOptions{Root: cfg.Root, Logger: slog.Default()})
		art, err := svc.Render(ctx, name, resolved, preview.Options{Thumbnail: previewThumbnail})
		if err != nil {
			return err
		}

		if previewOutput == "" {
			_, err = cmd.OutOrStdout().Write(art.Body)
			return err
		}
		if err := os.WriteFile(previewOutput, art.Body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", previewOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", previewOutput)
		return nil
	},
}
