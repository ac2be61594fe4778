package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelfscan/internal/books"
	"shelfscan/internal/export"
)

func newExportCmd() *cobra.Command {
	var format string
	var out string
	var section string
	var db string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to CSV, JSON, or Parquet",
		Example: `  # Export everything as CSV to stdout
  shelfscan export

  # Export one section as Parquet
  shelfscan export --format parquet --section masterworks --out books.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := books.Open(dbPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), books.Filter{Section: section})
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("unable to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "csv":
				return export.WriteCSV(w, records)
			case "json":
				return export.WriteJSON(w, records)
			case "parquet":
				if out == "" {
					return fmt.Errorf("parquet export requires --out")
				}
				return export.WriteParquet(w, records)
			default:
				return fmt.Errorf("unknown format %q (want csv, json, or parquet)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, json, or parquet")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&section, "section", "", "Limit to one catalog section")
	cmd.Flags().StringVar(&db, "db", "", "Path to the catalog database")

	return cmd
}
