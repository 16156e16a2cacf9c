// Package storage maintains a SQLite index over the entries of a .bib
// file, for fast queries without rescanning the file.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/bibtools/bibfix/internal/bibtex"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Entry is one indexed bibliography entry.
type Entry struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Year  string `json:"year,omitempty"`
	DOI   string `json:"doi,omitempty"`
	URL   string `json:"url,omitempty"`
	ISSN  string `json:"issn,omitempty"`
}

// selectEntryFields contains the standard field list for SELECT queries.
const selectEntryFields = `key, entry_type, title, year, doi, url, issn`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Main entries table. Keys are not unique in the wild, so the
		-- implicit rowid is the primary key.
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			title TEXT,
			year TEXT,
			doi TEXT,
			url TEXT,
			issn TEXT
		);

		-- Index for DOI lookups
		CREATE INDEX IF NOT EXISTS idx_entries_doi ON entries(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Full-text search virtual table
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			key,
			title
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromBib clears the index and rebuilds it from a .bib file.
// Returns the number of entries indexed.
func (d *DB) RebuildFromBib(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	entries, _ := bibtex.Segment(string(data))

	if _, err := d.db.Exec("DELETE FROM entries"); err != nil {
		return 0, fmt.Errorf("clearing entries table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM entries_fts"); err != nil {
		return 0, fmt.Errorf("clearing entries_fts table: %w", err)
	}

	stmt, err := d.db.Prepare(`
		INSERT INTO entries (key, entry_type, title, year, doi, url, issn)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO entries_fts (key, title)
		VALUES (?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, e := range entries {
		key := bibtex.EntryKey(e.Raw)
		title := bibtex.FieldValue(e.Raw, "title")
		// Indexed titles shouldn't carry the export's doubled braces.
		title = strings.TrimPrefix(title, "{")
		title = strings.TrimSuffix(title, "}")

		_, err := stmt.Exec(
			key, e.Type, nullable(title),
			nullable(bibtex.FieldValue(e.Raw, "year")),
			nullable(bibtex.FieldValue(e.Raw, "doi")),
			nullable(bibtex.FieldValue(e.Raw, "url")),
			nullable(bibtex.FieldValue(e.Raw, "issn")),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", key, err)
		}

		if _, err := ftsStmt.Exec(key, title); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", key, err)
		}
	}

	return len(entries), nil
}

// Filters contains optional filters for List.
type Filters struct {
	Type        string // exact entry type match
	MissingYear bool   // entries with no year field
	NoDOI       bool   // entries with no doi field
	Search      string // FTS match over key and title
}

// List returns indexed entries matching all specified filters.
func (d *DB) List(filters Filters, limit int) ([]Entry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM entries WHERE 1=1`
	var args []interface{}

	if filters.Search != "" {
		query = `SELECT ` + selectEntryFields + ` FROM entries
			WHERE key IN (SELECT key FROM entries_fts WHERE entries_fts MATCH ?)`
		args = append(args, prepareFTSQuery(filters.Search))
	}
	if filters.Type != "" {
		query += " AND entry_type = ?"
		args = append(args, filters.Type)
	}
	if filters.MissingYear {
		query += " AND (year IS NULL OR year = '')"
	}
	if filters.NoDOI {
		query += " AND (doi IS NULL OR doi = '')"
	}

	query += " ORDER BY key LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of indexed entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var title, year, doi, url, issn sql.NullString

		if err := rows.Scan(&e.Key, &e.Type, &title, &year, &doi, &url, &issn); err != nil {
			return nil, err
		}
		e.Title = title.String
		e.Year = year.String
		e.DOI = doi.String
		e.URL = url.String
		e.ISSN = issn.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullable converts a string to sql.NullString, treating empty as NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
