package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shelfscan/internal/books"
	"shelfscan/internal/covers"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
	"shelfscan/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var listPath string
	var section string
	var db string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Sync a catalog section against a canonical edition list",
		Long: `Reconciles one catalog section against a curated YAML edition list.

Books already in the section are matched by normalized title and get
their ISBN and cover refreshed from the list. Books on the list but
missing from the catalog are looked up on Open Library and inserted.`,
		Example: `  # Sync the masterworks section
  shelfscan reconcile --list lists/masterworks.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := reconcile.LoadList(listPath)
			if err != nil {
				return err
			}
			if section != "" {
				list.Section = section
			}

			store, err := books.Open(dbPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			r := &reconcile.Reconciler{
				Store:    store,
				Covers:   covers.NewChecker(),
				Resolver: openlibrary.NewClient(),
				Section:  list.Section,
				Pacer:    pacing.New(time.Second),
			}

			summary, err := r.Run(cmd.Context(), list.Entries)
			if err != nil {
				return err
			}

			fmt.Printf("Section %q reconciled against %d entries:\n", list.Section, len(list.Entries))
			fmt.Printf("  covers updated: %d\n", summary.CoversUpdated)
			fmt.Printf("  ISBN only:      %d\n", summary.ISBNOnly)
			fmt.Printf("  added:          %d\n", summary.Inserted)
			fmt.Printf("  unchanged:      %d\n", summary.Unchanged)
			if len(summary.Failed) > 0 {
				fmt.Printf("  failed:         %d\n", len(summary.Failed))
				for _, title := range summary.Failed {
					fmt.Printf("    %s\n", title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listPath, "list", "", "Path to the YAML edition list (required)")
	cmd.Flags().StringVar(&section, "section", "", "Override the section named in the list")
	cmd.Flags().StringVar(&db, "db", "", "Path to the catalog database")
	_ = cmd.MarkFlagRequired("list")

	return cmd
}
