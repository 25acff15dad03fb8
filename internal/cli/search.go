package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"vendorrag/internal/usecase"
)

var (
	searchQuery         string
	searchVendor        string
	searchLimit         int
	searchMinSimilarity float64
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the documents of one vendor",
	Long: `Search a vendor's documents by semantic similarity. Results are collapsed
to one entry per document, scored by its best matching chunk.

Examples:
  vendorindex search -q "¿Cuál es la garantía de las laptops?" --vendor acme
  vendorindex search -q "envíos" --vendor acme --limit 5 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().StringVar(&searchVendor, "vendor", "", "vendor id (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of results (default from config)")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "minimum chunk similarity (default from config, negative disables)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
	searchCmd.MarkFlagRequired("vendor")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := prepareSchema(st, true); err != nil {
		return err
	}

	manager, err := newIndexManager(st, nil)
	if err != nil {
		return err
	}

	opts := usecase.SearchOptions{
		VendorID:      searchVendor,
		Limit:         cfg.Retrieve.Limit,
		MinSimilarity: cfg.Retrieve.MinSimilarity,
	}
	if searchLimit > 0 {
		opts.Limit = searchLimit
	}
	if cmd.Flags().Changed("min-similarity") {
		opts.MinSimilarity = searchMinSimilarity
	}

	results, err := manager.Search(cmd.Context(), searchQuery, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(results), searchQuery)
	for i, r := range results {
		label := r.Title
		if r.Category != "" {
			label = r.Category + "/" + label
		}
		fmt.Printf("--- [%d] %s (score: %.2f, chunks: %d) ---\n", i+1, label, r.RelevanceScore, len(r.MatchingChunks))
		fmt.Println(truncateRunes(strings.TrimSpace(r.BestChunkContent), 500))
		fmt.Println()
	}

	return nil
}

// truncateRunes shortens text to at most n runes, marking the cut with "...".
func truncateRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
