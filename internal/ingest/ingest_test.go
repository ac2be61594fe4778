package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shelfscan/internal/books"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
	"shelfscan/internal/vision"
)

type fakeExtractor struct {
	candidates []vision.Candidate
	err        error
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) ([]vision.Candidate, error) {
	return f.candidates, f.err
}

type fakeResolver struct {
	byTitle map[string]openlibrary.Metadata
}

func (f *fakeResolver) Resolve(ctx context.Context, title, author string) openlibrary.Metadata {
	if meta, ok := f.byTitle[title]; ok {
		return meta
	}
	return openlibrary.Metadata{Title: title, Author: author}
}

func testStore(t *testing.T) *books.Store {
	t.Helper()
	store, err := books.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestScanImage(t *testing.T) {
	store := testStore(t)
	svc := &Service{
		Extractor: &fakeExtractor{candidates: []vision.Candidate{
			{Title: "Dune", Author: "Frank Herbert"},
			{Title: "Ubik", Author: "Philip K. Dick"},
		}},
		Resolver: &fakeResolver{byTitle: map[string]openlibrary.Metadata{
			"Dune": {
				Title:       "Dune",
				Author:      "Frank Herbert",
				ISBN:        "9780441172719",
				CoverURL:    "https://covers.openlibrary.org/b/id/11481354-M.jpg",
				Publisher:   "Ace Books",
				PublishYear: 1965,
				CatalogKey:  "/works/OL893415W",
			},
		}},
		Store: store,
	}

	result, err := svc.ScanImage(context.Background(), []byte("img"), "image/jpeg", "shelf1.jpg")
	if err != nil {
		t.Fatalf("Expected scan to succeed, got %v", err)
	}

	if result.Detected != 2 {
		t.Errorf("Expected 2 detected, got %d", result.Detected)
	}
	if len(result.Added) != 2 {
		t.Fatalf("Expected 2 added, got %d", len(result.Added))
	}

	dune := result.Added[0]
	if dune.ISBN != "9780441172719" || dune.Publisher != "Ace Books" {
		t.Errorf("Expected enriched record, got %+v", dune)
	}
	if dune.SourceImage != "shelf1.jpg" {
		t.Errorf("Expected source image recorded, got %s", dune.SourceImage)
	}
	if !dune.Owned {
		t.Error("Expected scanned books marked owned")
	}

	// Ubik had no catalog match so the candidate fields carry through
	ubik := result.Added[1]
	if ubik.Title != "Ubik" || ubik.Author != "Philip K. Dick" || ubik.ISBN != "" {
		t.Errorf("Expected identity record, got %+v", ubik)
	}

	stored, err := store.List(context.Background(), books.Filter{})
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("Expected 2 stored records, got %d", len(stored))
	}
}

func TestScanImageConcurrentRequests(t *testing.T) {
	store := testStore(t)
	svc := &Service{
		Extractor: &fakeExtractor{candidates: []vision.Candidate{
			{Title: "Dune", Author: "Frank Herbert"},
		}},
		Resolver: &fakeResolver{},
		Store:    store,
		Pacer:    pacing.New(time.Millisecond),
	}

	// The HTTP server runs scans concurrently against one shared service
	const requests = 4
	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ScanImage(context.Background(), []byte("img"), "image/jpeg", "shelf.jpg")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Expected scan %d to succeed, got %v", i, err)
		}
	}

	count, err := store.Count(context.Background(), books.Filter{})
	if err != nil {
		t.Fatalf("Expected count to succeed, got %v", err)
	}
	if count != requests {
		t.Errorf("Expected %d stored records, got %d", requests, count)
	}
}

func TestScanImageExtractionFailure(t *testing.T) {
	cause := &vision.BackendError{Backend: "ollama", Err: errors.New("connection refused")}
	svc := &Service{
		Extractor: &fakeExtractor{err: cause},
		Resolver:  &fakeResolver{},
		Store:     testStore(t),
	}

	_, err := svc.ScanImage(context.Background(), []byte("img"), "image/jpeg", "shelf1.jpg")

	var backendErr *vision.BackendError
	if !errors.As(err, &backendErr) {
		t.Errorf("Expected backend error to propagate, got %v", err)
	}
}

func TestScanImageNoExtractor(t *testing.T) {
	svc := &Service{Resolver: &fakeResolver{}, Store: testStore(t)}

	_, err := svc.ScanImage(context.Background(), []byte("img"), "image/jpeg", "shelf1.jpg")
	if !errors.Is(err, vision.ErrNoBackendConfigured) {
		t.Errorf("Expected ErrNoBackendConfigured, got %v", err)
	}
}

func TestScanImageEmptyShelf(t *testing.T) {
	svc := &Service{
		Extractor: &fakeExtractor{},
		Resolver:  &fakeResolver{},
		Store:     testStore(t),
	}

	result, err := svc.ScanImage(context.Background(), []byte("img"), "image/jpeg", "shelf1.jpg")
	if err != nil {
		t.Fatalf("Expected scan to succeed, got %v", err)
	}
	if result.Detected != 0 || len(result.Added) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}
