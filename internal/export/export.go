// Package export writes catalog snapshots in CSV, JSON, and Parquet.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"shelfscan/internal/books"
)

var csvHeader = []string{
	"id", "title", "author", "isbn", "publisher", "publish_year",
	"description", "cover_url", "open_library_key", "section",
	"source_image", "owned", "added_at",
}

// WriteCSV writes the records as CSV with a header row.
func WriteCSV(w io.Writer, records []books.BookRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		year := ""
		if rec.PublishYear != 0 {
			year = strconv.Itoa(rec.PublishYear)
		}
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Title,
			rec.Author,
			rec.ISBN,
			rec.Publisher,
			year,
			rec.Description,
			rec.CoverURL,
			rec.OpenLibraryKey,
			rec.Section,
			rec.SourceImage,
			strconv.FormatBool(rec.Owned),
			rec.AddedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, records []books.BookRecord) error {
	if records == nil {
		records = []books.BookRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type parquetRow struct {
	ID             int64  `parquet:"id"`
	Title          string `parquet:"title"`
	Author         string `parquet:"author,optional"`
	ISBN           string `parquet:"isbn,optional"`
	Publisher      string `parquet:"publisher,optional"`
	PublishYear    int32  `parquet:"publish_year,optional"`
	Description    string `parquet:"description,optional"`
	CoverURL       string `parquet:"cover_url,optional"`
	OpenLibraryKey string `parquet:"open_library_key,optional"`
	Section        string `parquet:"section,optional"`
	SourceImage    string `parquet:"source_image,optional"`
	Owned          bool   `parquet:"owned"`
	AddedAt        string `parquet:"added_at"`
}

// WriteParquet writes the records as a Parquet file.
func WriteParquet(w io.Writer, records []books.BookRecord) error {
	pw := parquet.NewGenericWriter[parquetRow](w)

	for _, rec := range records {
		row := parquetRow{
			ID:             rec.ID,
			Title:          rec.Title,
			Author:         rec.Author,
			ISBN:           rec.ISBN,
			Publisher:      rec.Publisher,
			PublishYear:    int32(rec.PublishYear),
			Description:    rec.Description,
			CoverURL:       rec.CoverURL,
			OpenLibraryKey: rec.OpenLibraryKey,
			Section:        rec.Section,
			SourceImage:    rec.SourceImage,
			Owned:          rec.Owned,
			AddedAt:        rec.AddedAt.Format(time.RFC3339),
		}
		if _, err := pw.Write([]parquetRow{row}); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
