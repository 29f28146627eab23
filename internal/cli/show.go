package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

var showTree bool

func init() {
	showCmd.Flags().BoolVar(&showTree, "tree", false, "Print the dependency tree instead of the entry")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <name|module/section/theme[-template]>",
	Short: "Show one registry entry",
	Long: `Show the index entry of a block, layout or primitive, including its content
binding and fallback data.

Examples:
  blockreg show about-team-bold-cards
  blockreg show about/about-team/bold-cards --tree`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openRegistry(cmd.Context(), workDir(), cfg)
		if err != nil {
			return err
		}

		e, ok := a.Lookup(args[0])
		if !ok {
			return fmt.Errorf("block %q not found", args[0])
		}

		out := cmd.OutOrStdout()
		if showTree {
			node, err := registry.BuildDependencyTree(e.Name, a)
			if err != nil {
				return err
			}
			registry.PrintTree(out, node, "", true)
			return nil
		}

		data, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	},
}
