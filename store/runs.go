package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run records the outcome of scraping one archive page.
type Run struct {
	RunID       uuid.UUID `json:"run_id"`
	ArchiveURL  string    `json:"archive_url"`
	ArchiveDate string    `json:"archive_date"` // YYYY-MM-DD
	Category    string    `json:"category"`
	Headline    *string   `json:"headline,omitempty"`
	TeaserCount *string   `json:"teaser_count,omitempty"`
	Found       int       `json:"found"`
	Valid       int       `json:"valid"`
	Stored      int       `json:"stored"`
	Failed      int       `json:"failed"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Error       *string   `json:"error,omitempty"`
}

// NewRun starts a run record for the given archive page.
func NewRun(archiveURL, archiveDate, category string) Run {
	return Run{
		RunID:       uuid.New(),
		ArchiveURL:  archiveURL,
		ArchiveDate: archiveDate,
		Category:    category,
		StartedAt:   time.Now(),
	}
}

type runRow struct {
	RunID       string         `db:"run_id"`
	ArchiveURL  string         `db:"archive_url"`
	ArchiveDate string         `db:"archive_date"`
	Category    string         `db:"category"`
	Headline    sql.NullString `db:"headline"`
	TeaserCount sql.NullString `db:"teaser_count"`
	Found       int            `db:"found"`
	Valid       int            `db:"valid"`
	Stored      int            `db:"stored"`
	Failed      int            `db:"failed"`
	StartedAt   string         `db:"started_at"`
	FinishedAt  string         `db:"finished_at"`
	Error       sql.NullString `db:"error"`
}

// RecordRun stores a finished run.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	query := `
		INSERT INTO scrape_runs (
			run_id, archive_url, archive_date, category, headline, teaser_count,
			found, valid, stored, failed, started_at, finished_at, error
		) VALUES (
			:run_id, :archive_url, :archive_date, :category, :headline, :teaser_count,
			:found, :valid, :stored, :failed, :started_at, :finished_at, :error
		)
	`

	r := runRow{
		RunID:       run.RunID.String(),
		ArchiveURL:  run.ArchiveURL,
		ArchiveDate: run.ArchiveDate,
		Category:    run.Category,
		Headline:    nullString(run.Headline),
		TeaserCount: nullString(run.TeaserCount),
		Found:       run.Found,
		Valid:       run.Valid,
		Stored:      run.Stored,
		Failed:      run.Failed,
		StartedAt:   formatTime(run.StartedAt),
		FinishedAt:  formatTime(run.FinishedAt),
		Error:       nullString(run.Error),
	}

	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, archive_url, archive_date, category, headline, teaser_count,
		       found, valid, stored, failed, started_at, finished_at, error
		FROM scrape_runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run ID: %w", err)
		}
		runs = append(runs, Run{
			RunID:       id,
			ArchiveURL:  r.ArchiveURL,
			ArchiveDate: r.ArchiveDate,
			Category:    r.Category,
			Headline:    stringPtr(r.Headline),
			TeaserCount: stringPtr(r.TeaserCount),
			Found:       r.Found,
			Valid:       r.Valid,
			Stored:      r.Stored,
			Failed:      r.Failed,
			StartedAt:   parseTime(r.StartedAt),
			FinishedAt:  parseTime(r.FinishedAt),
			Error:       stringPtr(r.Error),
		})
	}

	return runs, nil
}

// runTimeLayout has fixed width so that text ordering of started_at is
// chronological.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(runTimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(runTimeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
