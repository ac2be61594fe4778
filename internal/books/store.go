// Package books persists the catalog in a local SQLite database.
package books

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single pooled connection keeps the pragmas in effect for every
	// query and avoids SQLITE_BUSY under concurrent handler writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

const bookColumns = `id, title, author, isbn, cover_url, description, publisher,
    publish_year, open_library_key, section, source_image, owned, added_at`

// Insert adds a new record and returns its assigned id. AddedAt is set
// once here and never mutated afterwards.
func (s *Store) Insert(ctx context.Context, rec *BookRecord) (int64, error) {
	if rec == nil {
		return 0, errors.New("record is nil")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return 0, errors.New("title is required")
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO books (
            title, author, isbn, cover_url, description, publisher,
            publish_year, open_library_key, section, source_image, owned, added_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title,
		nullableString(rec.Author),
		nullableString(CleanISBN(rec.ISBN)),
		nullableString(rec.CoverURL),
		nullableString(rec.Description),
		nullableString(rec.Publisher),
		nullableInt(rec.PublishYear),
		nullableString(rec.OpenLibraryKey),
		nullableString(rec.Section),
		nullableString(rec.SourceImage),
		boolToInt(rec.Owned),
		rec.AddedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// GetByID fetches a record by identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*BookRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	rec, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return rec, nil
}

// UpdateISBN overwrites a record's ISBN, leaving the cover untouched.
func (s *Store) UpdateISBN(ctx context.Context, id int64, isbn string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE books SET isbn = ? WHERE id = ?`, CleanISBN(isbn), id); err != nil {
		return fmt.Errorf("update isbn: %w", err)
	}
	return nil
}

// UpdateCover overwrites a record's cover URL.
func (s *Store) UpdateCover(ctx context.Context, id int64, coverURL string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE books SET cover_url = ? WHERE id = ?`, nullableString(coverURL), id); err != nil {
		return fmt.Errorf("update cover: %w", err)
	}
	return nil
}

// UpdateISBNAndCover overwrites a record's ISBN and cover URL together.
func (s *Store) UpdateISBNAndCover(ctx context.Context, id int64, isbn, coverURL string) error {
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE books SET isbn = ?, cover_url = ? WHERE id = ?`,
		CleanISBN(isbn), nullableString(coverURL), id,
	); err != nil {
		return fmt.Errorf("update isbn and cover: %w", err)
	}
	return nil
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]BookRecord, error) {
	where, args := buildFilter(f)
	query := `SELECT ` + bookColumns + ` FROM books` + where + ` ORDER BY added_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var records []BookRecord
	for rows.Next() {
		rec, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Count returns the number of records matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildFilter(f)
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return total, nil
}

// Sections returns the distinct non-empty section labels in use.
func (s *Store) Sections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT section FROM books WHERE section IS NOT NULL AND section != '' ORDER BY section`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var section string
		if err := rows.Scan(&section); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, section)
	}
	return sections, rows.Err()
}

// TitlesBySection returns the id/title/isbn/cover slice of every record
// in a section, ordered by title. The reconciler matches against this.
func (s *Store) TitlesBySection(ctx context.Context, section string) ([]SectionTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(isbn, ''), COALESCE(cover_url, '') FROM books WHERE section = ? ORDER BY title`,
		section)
	if err != nil {
		return nil, fmt.Errorf("titles by section: %w", err)
	}
	defer rows.Close()

	var titles []SectionTitle
	for rows.Next() {
		var t SectionTitle
		if err := rows.Scan(&t.ID, &t.Title, &t.ISBN, &t.CoverURL); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Delete removes a record by identifier. Returns false when no record matched.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func buildFilter(f Filter) (string, []any) {
	var clauses []string
	var args []any
	if f.Query != "" {
		clauses = append(clauses, `(title LIKE ? OR author LIKE ?)`)
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	if f.Section != "" {
		clauses = append(clauses, `section = ?`)
		args = append(args, f.Section)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*BookRecord, error) {
	var (
		rec         BookRecord
		author      sql.NullString
		isbn        sql.NullString
		coverURL    sql.NullString
		description sql.NullString
		publisher   sql.NullString
		publishYear sql.NullInt64
		olKey       sql.NullString
		section     sql.NullString
		sourceImage sql.NullString
		owned       int
		addedAt     string
	)

	if err := row.Scan(
		&rec.ID, &rec.Title, &author, &isbn, &coverURL, &description,
		&publisher, &publishYear, &olKey, &section, &sourceImage, &owned, &addedAt,
	); err != nil {
		return nil, err
	}

	rec.Author = author.String
	rec.ISBN = isbn.String
	rec.CoverURL = coverURL.String
	rec.Description = description.String
	rec.Publisher = publisher.String
	rec.PublishYear = int(publishYear.Int64)
	rec.OpenLibraryKey = olKey.String
	rec.Section = section.String
	rec.SourceImage = sourceImage.String
	rec.Owned = owned != 0

	ts, err := time.Parse(time.RFC3339Nano, addedAt)
	if err != nil {
		return nil, fmt.Errorf("parse added_at: %w", err)
	}
	rec.AddedAt = ts

	return &rec, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
