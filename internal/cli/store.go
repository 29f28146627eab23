package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blockreg-labs/blockreg/internal/content"
	"github.com/blockreg-labs/blockreg/internal/store"
)

func init() {
	storeCmd.AddCommand(storeSeedCmd)
	storeCmd.AddCommand(storeListCmd)
	rootCmd.AddCommand(storeCmd)
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the external collection store",
	Long: `Seed and inspect the store the resolver reads collection records from.
The driver is selected by store.driver (memory, sqlite or s3).`,
}

var storeSeedCmd = &cobra.Command{
	Use:   "seed [content-type file.json]",
	Short: "Replace the records of a content type",
	Long: `Replace every record of a content type with the JSON array in file.json.
Without arguments, every content type is seeded from the fallback records of
the registry.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		batches := make(map[string][]content.Record)
		if len(args) == 2 {
			records, err := readRecords(args[1])
			if err != nil {
				return err
			}
			batches[args[0]] = records
		} else {
			a, err := openRegistry(ctx, workDir(), cfg)
			if err != nil {
				return err
			}
			for ct, recs := range a.FallbackRecords {
				batches[ct] = recs
			}
		}

		types := make([]string, 0, len(batches))
		for ct := range batches {
			types = append(types, ct)
		}
		sort.Strings(types)

		for _, ct := range types {
			if err := s.Seed(ctx, ct, batches[ct]); err != nil {
				return fmt.Errorf("seeding %s: %w", ct, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d %s records\n", len(batches[ct]), ct)
		}
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list <content-type>",
	Short: "Print the stored records of a content type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		records, err := s.ListRecords(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if records == nil {
			records = []content.Record{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func requireStore(cmd *cobra.Command) (store.Store, error) {
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("no store configured; set store.driver or pass --store")
	}
	return s, nil
}

func readRecords(path string) ([]content.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []content.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}
