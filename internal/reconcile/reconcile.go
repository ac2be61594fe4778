// Package reconcile syncs a catalog section against a canonical
// edition list.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"shelfscan/internal/books"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
)

type coverChecker interface {
	ISBNCoverURL(isbn string) string
	Valid(ctx context.Context, coverURL string) bool
}

type metadataResolver interface {
	Resolve(ctx context.Context, title, author string) openlibrary.Metadata
}

type catalog interface {
	TitlesBySection(ctx context.Context, section string) ([]books.SectionTitle, error)
	UpdateISBN(ctx context.Context, id int64, isbn string) error
	UpdateISBNAndCover(ctx context.Context, id int64, isbn, coverURL string) error
	Insert(ctx context.Context, rec *books.BookRecord) (int64, error)
}

// Summary reports what a reconciliation run did. The four counts are
// disjoint; every list entry lands in exactly one of them or in Failed.
type Summary struct {
	CoversUpdated int
	ISBNOnly      int
	Inserted      int
	Unchanged     int
	Failed        []string
}

// Reconciler applies a canonical edition list to one catalog section.
type Reconciler struct {
	Store    catalog
	Covers   coverChecker
	Resolver metadataResolver
	Section  string
	Pacer    *pacing.Pacer
}

// Run processes every list entry in order. Entries whose normalized
// title matches an existing record get their ISBN and cover refreshed;
// the rest are inserted as new records. Individual failures are
// recorded and never abort the run.
func (r *Reconciler) Run(ctx context.Context, entries []Entry) (*Summary, error) {
	existing, err := r.Store.TitlesBySection(ctx, r.Section)
	if err != nil {
		return nil, fmt.Errorf("load section %s: %w", r.Section, err)
	}

	index := make(map[string]books.SectionTitle, len(existing))
	for _, t := range existing {
		index[NormalizeTitle(t.Title)] = t
	}

	summary := &Summary{}
	for _, entry := range entries {
		key := NormalizeTitle(entry.Title)
		if key == "" {
			summary.Failed = append(summary.Failed, entry.Title)
			continue
		}

		if current, ok := index[key]; ok {
			if err := r.refresh(ctx, current, entry, summary); err != nil {
				slog.Warn("Unable to refresh record", "title", entry.Title, "err", err)
				summary.Failed = append(summary.Failed, entry.Title)
			}
			continue
		}

		rec, err := r.insert(ctx, entry)
		if err != nil {
			slog.Warn("Unable to insert record", "title", entry.Title, "err", err)
			summary.Failed = append(summary.Failed, entry.Title)
			continue
		}
		summary.Inserted++
		// Index the new record so a duplicate list entry refreshes
		// instead of inserting twice.
		index[key] = books.SectionTitle{ID: rec.ID, Title: rec.Title, ISBN: rec.ISBN, CoverURL: rec.CoverURL}
	}

	return summary, nil
}

// refresh brings a matched record's ISBN and cover in line with the
// list entry. When the record already carries the list's ISBN and its
// canonical cover, nothing is written and no lookups are made.
func (r *Reconciler) refresh(ctx context.Context, current books.SectionTitle, entry Entry, summary *Summary) error {
	isbn := books.CleanISBN(entry.ISBN)
	canonicalCover := r.Covers.ISBNCoverURL(entry.ISBN)

	// An entry with no ISBN has nothing to reconcile onto a match
	if isbn == "" {
		summary.Unchanged++
		return nil
	}

	if current.ISBN == isbn && canonicalCover != "" && current.CoverURL == canonicalCover {
		summary.Unchanged++
		return nil
	}

	if err := r.Pacer.Wait(ctx); err != nil {
		return err
	}

	if canonicalCover != "" && r.Covers.Valid(ctx, canonicalCover) {
		if err := r.Store.UpdateISBNAndCover(ctx, current.ID, isbn, canonicalCover); err != nil {
			return err
		}
		summary.CoversUpdated++
		slog.Info("Updated record with new cover", "title", entry.Title, "isbn", isbn)
		return nil
	}

	if err := r.Store.UpdateISBN(ctx, current.ID, isbn); err != nil {
		return err
	}
	summary.ISBNOnly++
	slog.Info("Updated ISBN, no cover found", "title", entry.Title, "isbn", isbn)
	return nil
}

// insert creates a record from a list entry. The entry's title, author,
// and ISBN are authoritative; the metadata lookup only fills in the
// descriptive fields. The cover is the canonical ISBN cover URL, taken
// on faith so a later cover pass can validate the whole section at once.
func (r *Reconciler) insert(ctx context.Context, entry Entry) (*books.BookRecord, error) {
	if err := r.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	meta := r.Resolver.Resolve(ctx, entry.Title, entry.Author)

	rec := &books.BookRecord{
		Title:          entry.Title,
		Author:         entry.Author,
		ISBN:           books.CleanISBN(entry.ISBN),
		Description:    meta.Description,
		Publisher:      meta.Publisher,
		PublishYear:    meta.PublishYear,
		OpenLibraryKey: meta.CatalogKey,
		Section:        r.Section,
		Owned:          entry.Owned,
	}
	if rec.Author == "" {
		rec.Author = meta.Author
	}
	if rec.ISBN != "" {
		rec.CoverURL = r.Covers.ISBNCoverURL(rec.ISBN)
	} else {
		rec.ISBN = books.CleanISBN(meta.ISBN)
		rec.CoverURL = meta.CoverURL
	}

	if _, err := r.Store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	slog.Info("Added record from list", "title", rec.Title, "section", r.Section)
	return rec, nil
}
