package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/content"
)

var resolveContentFile string

func init() {
	resolveCmd.Flags().StringVar(&resolveContentFile, "content", "", "JSON file with explicit fields and collections (- for stdin)")
	resolveCmd.Flags().Duration("timeout", 0, "Per-lookup store timeout")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve the content a block would render with",
	Long: `Resolve every field and collection a block binds to. Explicit content wins,
then records from the configured store, then the block's embedded fallback data.
Store problems are reported as warnings and fall back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		explicit, err := readContent(cmd.InOrStdin(), resolveContentFile)
		if err != nil {
			return err
		}

		a, err := openRegistry(ctx, workDir(), cfg)
		if err != nil {
			return err
		}
		resolver, release, err := newResolver(ctx, a, cfg)
		if err != nil {
			return err
		}
		defer release()

		resolved, err := resolver.Resolve(ctx, args[0], explicit)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), resolved.Warnings)

		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

// readContent decodes explicit content from path. An empty path means none.
func readContent(stdin io.Reader, path string) (*content.Content, error) {
	if path == "" {
		return nil, nil
	}

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening content file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var c content.Content
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding content %s: %w", path, err)
	}
	return &c, nil
}
