package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"shelfscan/internal/books"
	"shelfscan/internal/ingest"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
	"shelfscan/internal/vision"
)

func newScanCmd() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "scan [image]",
		Short: "Scan a bookshelf photo and catalog the books",
		Args:  cobra.ExactArgs(1),
		Example: `  # Scan a shelf photo
  shelfscan scan shelf.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			imagePath := args[0]
			imageData, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("unable to read image: %w", err)
			}

			mimeType := http.DetectContentType(imageData)

			extractor, err := vision.NewExtractor()
			if err != nil {
				return err
			}

			store, err := books.Open(dbPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			svc := &ingest.Service{
				Extractor: extractor,
				Resolver:  openlibrary.NewClient(),
				Store:     store,
				Pacer:     pacing.New(time.Second),
			}

			result, err := svc.ScanImage(cmd.Context(), imageData, mimeType, filepath.Base(imagePath))
			if err != nil {
				return err
			}

			fmt.Printf("Detected %d books, added %d:\n", result.Detected, len(result.Added))
			for _, rec := range result.Added {
				if rec.Author != "" {
					fmt.Printf("  %s by %s\n", rec.Title, rec.Author)
				} else {
					fmt.Printf("  %s\n", rec.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "Path to the catalog database")

	return cmd
}
