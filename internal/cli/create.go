package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/registry"
	"github.com/blockreg-labs/blockreg/internal/scaffold"
)

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createBlockCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold new sources in the block tree",
}

// ─── create block ──────────────────────────────────────────────────

var (
	blockTheme       string
	blockTemplate    string
	blockDescription string
	blockFields      []string
	blockCollection  string
)

var createBlockCmd = &cobra.Command{
	Use:   "block <module> <section>",
	Short: "Scaffold a new block variant",
	Long: `Scaffold a block source with front matter and an entry {{define}}.

Examples:
  blockreg create block about about-team --theme bold --template cards \
    --field heading --field subheading --collection teamMemberItem
  blockreg create block marketing hero --theme minimal`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, ok := registry.ParseTheme(blockTheme)
		if !ok {
			return fmt.Errorf("unknown theme %q", blockTheme)
		}

		res, err := scaffold.Block(workDir(), cfg.Root, &scaffold.BlockData{
			Module:      args[0],
			Section:     args[1],
			Theme:       theme,
			Template:    blockTemplate,
			Description: blockDescription,
			Fields:      blockFields,
			Collection:  blockCollection,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %s\n", res.Path)
		fmt.Fprintf(out, "  name:   %s\n", res.Name)
		fmt.Fprintf(out, "  define: %s\n", res.Symbol)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintf(out, "  1. Edit %s\n", res.Path)
		fmt.Fprintf(out, "  2. Run 'blockreg preview %s -o preview.html'\n", res.Name)
		fmt.Fprintln(out, "  3. Run 'blockreg build'")
		return nil
	},
}

func init() {
	createBlockCmd.Flags().StringVar(&blockTheme, "theme", "standard", "Theme (bold, minimal, neobrutalism, standard)")
	createBlockCmd.Flags().StringVar(&blockTemplate, "template", "", "Template variant (default: none)")
	createBlockCmd.Flags().StringVar(&blockDescription, "description", "", "Block description")
	createBlockCmd.Flags().StringArrayVar(&blockFields, "field", nil, "Scalar field name (repeatable)")
	createBlockCmd.Flags().StringVar(&blockCollection, "collection", "", "Collection name")
}
