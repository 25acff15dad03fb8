package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"vendorrag/internal/domain"
	"vendorrag/internal/usecase"
)

var (
	statsVendor string
	statsNoLoad bool
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics for a vendor",
	Long: `Load a vendor's index and print its statistics. Loading re-embeds only
documents whose persisted chunks are missing or stale.

Examples:
  vendorindex stats --vendor acme
  vendorindex stats --vendor acme --no-load --json

With --no-load the counts come from the stored documents and nothing is
embedded; memory usage is not reported.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsVendor, "vendor", "", "vendor id (required)")
	statsCmd.Flags().BoolVar(&statsNoLoad, "no-load", false, "report without loading the index")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	statsCmd.MarkFlagRequired("vendor")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := prepareSchema(st, !statsNoLoad); err != nil {
		return err
	}

	manager, err := newIndexManager(st, nil)
	if err != nil {
		return err
	}

	var stats domain.IndexStats
	if statsNoLoad {
		stats, err = manager.PersistedStats(cmd.Context(), statsVendor)
		if err != nil {
			return fmt.Errorf("failed to read stored documents: %w", err)
		}
	} else {
		if _, err := manager.EnsureLoaded(cmd.Context(), statsVendor, usecase.RebuildIncremental); err != nil {
			return fmt.Errorf("failed to load index: %w", err)
		}
		stats = manager.GetStats(statsVendor)
	}

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Vendor:          %s\n", statsVendor)
	fmt.Printf("Loaded:          %v\n", stats.IsLoaded)
	fmt.Printf("Documents:       %d\n", stats.TotalDocuments)
	fmt.Printf("Chunks:          %d\n", stats.IndexedChunks)
	if stats.IsLoaded {
		fmt.Printf("Memory (approx): %s\n", formatBytes(stats.MemoryUsage))
	}
	if !stats.LastUpdate.IsZero() {
		fmt.Printf("Last update:     %s\n", stats.LastUpdate.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
