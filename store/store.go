package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newsarchive/teaser"
)

// ErrNotFound is returned when no teaser has the requested id.
var ErrNotFound = errors.New("teaser not found")

// Store persists validated teasers in SQLite. The caller owns the handle and
// must Close it.
type Store struct {
	db *sqlx.DB
}

// row is the persisted form of a teaser.Record.
type row struct {
	ID        string         `db:"id"`
	Timestamp string         `db:"timestamp"`
	Topline   sql.NullString `db:"topline"`
	Headline  string         `db:"headline"`
	Shorttext string         `db:"shorttext"`
	Link      string         `db:"link"`
	Tags      sql.NullString `db:"tags"`
}

// Open opens the SQLite database at dsn. It does not create tables; call
// EnsureSchema for that.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids "database is
	// locked" errors from parallel teaser workers
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// OpenWithSchema opens the database and ensures the schema exists.
func OpenWithSchema(ctx context.Context, dsn string) (*Store, error) {
	s, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// EnsureSchema creates the tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS teasers (
		id TEXT UNIQUE,
		timestamp DATETIME,
		topline TEXT,
		headline TEXT,
		shorttext TEXT,
		link TEXT,
		tags TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		run_id TEXT PRIMARY KEY,
		archive_url TEXT NOT NULL,
		archive_date TEXT NOT NULL,
		category TEXT NOT NULL,
		headline TEXT,
		teaser_count TEXT,
		found INTEGER NOT NULL DEFAULT 0,
		valid INTEGER NOT NULL DEFAULT 0,
		stored INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		error TEXT
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// DropSchema removes the tables and everything stored in them.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	DROP TABLE IF EXISTS teasers;
	DROP TABLE IF EXISTS scrape_runs;
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a record unless a row with the same id exists. Existing rows
// are never updated; a duplicate is reported as inserted == false without
// an error.
func (s *Store) Insert(ctx context.Context, record teaser.Record) (bool, error) {
	if record.ID == "" {
		return false, fmt.Errorf("cannot insert teaser without id")
	}

	query := `
		INSERT OR IGNORE INTO teasers (id, timestamp, topline, headline, shorttext, link, tags)
		VALUES (:id, :timestamp, :topline, :headline, :shorttext, :link, :tags)
	`

	result, err := s.db.NamedExecContext(ctx, query, toRow(record))
	if err != nil {
		return false, fmt.Errorf("failed to insert teaser: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Get retrieves a stored teaser by id.
func (s *Store) Get(ctx context.Context, id string) (*teaser.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `
		SELECT id, timestamp, topline, headline, shorttext, link, tags
		FROM teasers
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query teaser: %w", err)
	}

	return r.toRecord()
}

// List returns stored teasers ordered by timestamp, newest first. A limit of
// zero returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]teaser.Record, error) {
	query := `
		SELECT id, timestamp, topline, headline, shorttext, link, tags
		FROM teasers
		ORDER BY timestamp DESC, id
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query teasers: %w", err)
	}

	records := make([]teaser.Record, 0, len(rows))
	for _, r := range rows {
		record, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, nil
}

// Count returns the number of stored teasers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM teasers"); err != nil {
		return 0, fmt.Errorf("failed to count teasers: %w", err)
	}
	return n, nil
}

func toRow(record teaser.Record) row {
	return row{
		ID:        record.ID,
		Timestamp: record.Timestamp(),
		Topline:   nullString(record.Topline),
		Headline:  record.Headline,
		Shorttext: record.Shorttext,
		Link:      record.Link,
		Tags:      nullString(record.Tags),
	}
}

func (r row) toRecord() (*teaser.Record, error) {
	date, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp of %s: %w", r.ID, err)
	}

	return &teaser.Record{
		ID:        r.ID,
		RawDate:   teaser.FormatTimestamp(date),
		Date:      date,
		Topline:   stringPtr(r.Topline),
		Headline:  r.Headline,
		Shorttext: r.Shorttext,
		Link:      r.Link,
		Tags:      stringPtr(r.Tags),
	}, nil
}

// parseTimestamp accepts the canonical layout and the RFC 3339 form the
// sqlite3 driver may return for DATETIME columns.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(teaser.TimestampLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
