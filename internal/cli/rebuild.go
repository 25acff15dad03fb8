package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"vendorrag/internal/domain"
)

var (
	rebuildVendor string
	rebuildJSON   bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-chunk and re-embed every active document of a vendor",
	Long: `Rebuild discards the persisted chunks of every active document of the
vendor and embeds them again. When the chunking or embedding configuration
changed since the last rebuild, index data of all vendors is cleared first.

Examples:
  vendorindex rebuild --vendor acme
  vendorindex rebuild --vendor acme --json`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rebuildCmd.Flags().StringVar(&rebuildVendor, "vendor", "", "vendor id (required)")
	rebuildCmd.Flags().BoolVar(&rebuildJSON, "json", false, "output as JSON")
	rebuildCmd.MarkFlagRequired("vendor")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	migrationResult, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if migrationResult.NeedsReindex {
		fmt.Printf("Index data reset required: %s\n", migrationResult.Reason)
		cleared, err := st.ClearIndexData(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear index data: %w", err)
		}
		fmt.Printf("Cleared index data of %d documents\n", cleared)
	}

	active := true
	docs, err := st.FindAll(ctx, domain.DocumentFilter{IsActive: &active, VendorID: rebuildVendor})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!rebuildJSON),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	manager, err := newIndexManager(st, func(vendorID, documentID string) {
		_ = bar.Add(1)
	})
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := manager.Rebuild(ctx, rebuildVendor)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	_ = bar.Finish()

	// Record the configuration the stored embeddings were produced with.
	if err := st.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	if rebuildJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("\nRebuild complete for vendor %s:\n", rebuildVendor)
	fmt.Printf("  Documents indexed: %d\n", result.DocumentsIndexed)
	fmt.Printf("  Chunks indexed:    %d\n", result.ChunksIndexed)
	fmt.Printf("  Took:              %s\n", formatDuration(time.Since(start)))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
