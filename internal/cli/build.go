package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/diag"
	"github.com/blockreg-labs/blockreg/internal/registry"
)

var buildDryRun bool

func init() {
	buildCmd.Flags().Int("workers", 0, "Parallel extraction workers")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Build and report without writing artifacts")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the registry from the block tree",
	Long: `Scan the block tree, extract every block, layout and primitive, and write the
registry manifest and its indices to the output directory.

Per-file problems are reported as warnings and skipped. The command fails only
when the tree cannot be read or two blocks derive the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys := workDir()
		a, err := generate(cmd.Context(), fsys, cfg)
		if err != nil {
			return err
		}

		printWarnings(cmd.ErrOrStderr(), a.Warnings)

		out := cmd.OutOrStdout()
		if buildDryRun {
			fmt.Fprintf(out, "Would write %d blocks (%d indexed) to %s\n", len(a.Manifest.Blocks), len(a.Blocks), cfg.Out)
			return nil
		}
		if err := registry.Write(fsys, cfg.Out, a); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d blocks (%d indexed, %d warnings) to %s\n",
			len(a.Manifest.Blocks), len(a.Blocks), len(a.Warnings), cfg.Out)
		return nil
	},
}

func printWarnings(w io.Writer, ws diag.Warnings) {
	for _, warn := range ws.Sorted() {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}
