package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pevans/newsarchive/archive"
	"github.com/pevans/newsarchive/store"
	"github.com/pevans/newsarchive/teaser"
)

// Store is the destination of a sync. *store.Store implements it.
type Store interface {
	Insert(ctx context.Context, record teaser.Record) (bool, error)
	RecordRun(ctx context.Context, run store.Run) error
}

// SyncResult is the outcome of syncing one archive page.
type SyncResult struct {
	// Page is nil when the page itself could not be scraped
	Page *PageResult
	Run  store.Run
}

// SyncArchive scrapes the archive of one day into st. Each valid record is
// inserted as soon as it is complete, so a cancelled or failed sync keeps
// everything stored up to that point. A run entry is recorded in every
// case.
func (s *Service) SyncArchive(
	ctx context.Context,
	date time.Time,
	category archive.Category,
	st Store,
) (*SyncResult, error) {
	url, err := archive.BuildURL(date, category)
	if err != nil {
		return nil, err
	}

	run := store.NewRun(url, date.Format("2006-01-02"), string(category))
	stored := 0

	page, scrapeErr := s.scrape(ctx, url, func(ctx context.Context, index int, record teaser.Record) error {
		inserted, err := st.Insert(context.WithoutCancel(ctx), record)
		if err != nil {
			return err
		}
		if inserted {
			stored++
		} else {
			s.logger.Debug("Teaser already stored",
				slog.Int("index", index),
				slog.String("id", record.ID))
		}
		return nil
	})

	run.FinishedAt = time.Now()
	run.Stored = stored
	if page != nil {
		run.Headline = &page.Info.Headline
		run.TeaserCount = &page.Info.TeaserCount
		run.Found = page.Found
		run.Valid = len(page.Records)
		run.Failed = len(page.Errors)
	}
	if scrapeErr != nil {
		msg := scrapeErr.Error()
		run.Error = &msg
	}

	// The run is logged even when ctx was cancelled
	if err := st.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("Failed to record run",
			slog.String("run_id", run.RunID.String()),
			slog.String("error", err.Error()))
		if scrapeErr == nil {
			return &SyncResult{Page: page, Run: run}, fmt.Errorf("failed to record run: %w", err)
		}
	}

	return &SyncResult{Page: page, Run: run}, scrapeErr
}
