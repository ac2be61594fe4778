// Package ingest runs the scan pipeline: vision extraction, metadata
// enrichment, and catalog persistence.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"shelfscan/internal/books"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
	"shelfscan/internal/vision"
)

// Extractor reads book candidates off a shelf photo.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) ([]vision.Candidate, error)
}

// Resolver enriches a title/author pair with catalog metadata.
type Resolver interface {
	Resolve(ctx context.Context, title, author string) openlibrary.Metadata
}

// Service wires the scan pipeline together.
type Service struct {
	Extractor Extractor
	Resolver  Resolver
	Store     *books.Store
	Pacer     *pacing.Pacer
}

// Result summarizes one scanned image.
type Result struct {
	Detected int                `json:"detected"`
	Added    []books.BookRecord `json:"added"`
}

// ScanImage extracts candidates from the image, enriches each one, and
// stores the results. Enrichment never fails a candidate; a record is
// only lost if the database insert itself errors.
func (s *Service) ScanImage(ctx context.Context, image []byte, mimeType, sourceImage string) (*Result, error) {
	if s.Extractor == nil {
		return nil, vision.ErrNoBackendConfigured
	}

	candidates, err := s.Extractor.Extract(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract candidates: %w", err)
	}
	slog.Info("Extracted candidates from image", "source", sourceImage, "count", len(candidates))

	result := &Result{Detected: len(candidates)}
	for _, candidate := range candidates {
		if err := s.Pacer.Wait(ctx); err != nil {
			return result, err
		}

		meta := s.Resolver.Resolve(ctx, candidate.Title, candidate.Author)
		rec := books.BookRecord{
			Title:          meta.Title,
			Author:         meta.Author,
			ISBN:           meta.ISBN,
			CoverURL:       meta.CoverURL,
			Description:    meta.Description,
			Publisher:      meta.Publisher,
			PublishYear:    meta.PublishYear,
			OpenLibraryKey: meta.CatalogKey,
			SourceImage:    sourceImage,
			Owned:          true,
		}

		if _, err := s.Store.Insert(ctx, &rec); err != nil {
			slog.Warn("Unable to store scanned book", "title", candidate.Title, "err", err)
			continue
		}
		result.Added = append(result.Added, rec)
	}

	return result, nil
}
