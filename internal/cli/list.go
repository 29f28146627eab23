package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/registry"
)

var (
	listTheme  string
	listModule string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List public blocks",
	Long:  `List the public blocks of the registry. Layouts and primitives are not listed.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTheme, "theme", "", "Filter by theme (bold, minimal, neobrutalism, standard)")
	listCmd.Flags().StringVar(&listModule, "module", "", "Filter by module")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listTheme != "" {
		if _, ok := registry.ParseTheme(listTheme); !ok {
			return fmt.Errorf("unknown theme %q", listTheme)
		}
	}

	a, err := openRegistry(cmd.Context(), workDir(), cfg)
	if err != nil {
		return err
	}

	var blocks []registry.Block
	for _, b := range a.Manifest.Blocks {
		if listTheme != "" && b.ThemeName != listTheme {
			continue
		}
		if listModule != "" && b.ModuleName != listModule {
			continue
		}
		blocks = append(blocks, b)
	}

	if listJSON {
		if blocks == nil {
			blocks = []registry.Block{}
		}
		data, err := json.MarshalIndent(blocks, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if len(blocks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No blocks found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODULE\tTHEME\tDEPENDS ON")
	for _, b := range blocks {
		deps := "-"
		if len(b.RegistryDependencies) > 0 {
			deps = fmt.Sprint(b.RegistryDependencies)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, b.ModuleName, b.ThemeName, deps)
	}
	return w.Flush()
}
