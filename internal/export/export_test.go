package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"shelfscan/internal/books"
)

func sampleRecords() []books.BookRecord {
	added := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []books.BookRecord{
		{
			ID:             1,
			Title:          "Dune",
			Author:         "Frank Herbert",
			ISBN:           "9780441172719",
			Publisher:      "Ace Books",
			PublishYear:    1965,
			Description:    "A beginning is the time for taking the most delicate care.",
			CoverURL:       "https://covers.openlibrary.org/b/isbn/9780441172719-L.jpg",
			OpenLibraryKey: "/works/OL893415W",
			Section:        "masterworks",
			Owned:          true,
			AddedAt:        added,
		},
		{
			ID:      2,
			Title:   "Ubik",
			AddedAt: added,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Expected valid CSV, got %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "id" || rows[0][1] != "title" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	if rows[1][1] != "Dune" || rows[1][3] != "9780441172719" || rows[1][5] != "1965" {
		t.Errorf("Unexpected first row %v", rows[1])
	}
	if rows[1][12] != "2026-03-14T09:30:00Z" {
		t.Errorf("Unexpected timestamp %s", rows[1][12])
	}
	// Zero publish year renders empty, not "0"
	if rows[2][5] != "" {
		t.Errorf("Expected empty year for Ubik, got %q", rows[2][5])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("Expected header only, got %d lines", len(lines))
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	var decoded []books.BookRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(decoded))
	}
	if decoded[0].Title != "Dune" || decoded[0].PublishYear != 1965 {
		t.Errorf("Unexpected record %+v", decoded[0])
	}
}

func TestWriteJSONNilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty array, got %s", buf.String())
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, sampleRecords()); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Expected parquet output")
	}
	// Parquet files end with the PAR1 magic footer
	tail := buf.Bytes()[buf.Len()-4:]
	if string(tail) != "PAR1" {
		t.Errorf("Expected PAR1 footer, got %q", tail)
	}
}
