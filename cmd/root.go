package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelfscan",
		Short: "Personal book catalog built from bookshelf photos",
		Long: `ShelfScan turns photographs of bookshelves into a searchable book catalog.

A vision-capable LLM reads the spines, Open Library fills in bibliographic
metadata and cover art, and everything lands in a local SQLite catalog that
can be reconciled against curated edition lists.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newReconcileCmd())
	cmd.AddCommand(newCoversCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// dbPath resolves the catalog database location from the --db flag or
// the SHELFSCAN_DB environment variable.
func dbPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SHELFSCAN_DB"); env != "" {
		return env
	}
	return "./data/shelfscan.db"
}
