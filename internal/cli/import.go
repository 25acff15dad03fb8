package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"vendorrag/internal/adapter/fs"
	"vendorrag/internal/usecase"
)

var importVendor string

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import text files as vendor documents",
	Long: `Import every file matching the configured include patterns as a document
owned by the given vendor. Unchanged files are skipped; documents whose file
disappeared are deactivated.

Examples:
  vendorindex import ./docs --vendor acme`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importVendor, "vendor", "", "vendor id (required)")
	importCmd.MarkFlagRequired("vendor")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := prepareSchema(st, false); err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	importUC := usecase.NewImportUseCase(st, walker, GetLogger())

	fmt.Printf("Importing %s for vendor %s...\n", path, importVendor)

	result, err := importUC.Import(cmd.Context(), importVendor, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Files imported:    %d\n", result.FilesImported)
	fmt.Printf("  Files skipped:     %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files deactivated: %d (removed)\n", result.FilesDeactivated)
	if result.DocumentsActivated > 0 {
		fmt.Printf("  Reactivated:       %d\n", result.DocumentsActivated)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return nil
}
