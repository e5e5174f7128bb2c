package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/newsarchive/archive"
	"github.com/pevans/newsarchive/config"
	"github.com/pevans/newsarchive/discovery"
	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/export"
)

func handleScrape(cfg config.FileConfig, args []string) {
	dateArg, rest := splitPositional(args)

	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	until := fs.String("until", "", "Last day of a date range (YYYY-MM-DD)")
	categoryName := fs.String("category", string(archive.All), "Category: wirtschaft, inland, ausland or all")
	doExport := fs.Bool("export", false, "Also write the teasers as JSON into the data directory")
	dsn := fs.String("dsn", cfg.Storage.DSN, "Path to teaser database")
	dataDir := fs.String("data-dir", cfg.Storage.DataDir, "Directory for JSON exports")
	concurrency := fs.Int("concurrency", cfg.Scraper.Concurrency, "Teasers processed in parallel")
	verbose := fs.Bool("verbose", false, "Show debug output")
	fs.Parse(rest)

	if dateArg == "" && fs.NArg() > 0 {
		dateArg = fs.Arg(0)
	}
	if dateArg == "" {
		fmt.Fprintln(os.Stderr, "Error: scrape requires a date (YYYY-MM-DD)")
		fmt.Fprintln(os.Stderr, "Usage: newsarchive scrape <date> [--until <date>] [--category <c>] [--export]")
		os.Exit(1)
	}

	start, err := parseDate(dateArg)
	if err != nil {
		fatalf("%v", err)
	}
	end := start
	if *until != "" {
		if end, err = parseDate(*until); err != nil {
			fatalf("%v", err)
		}
		if end.Before(start) {
			fatalf("--until must not be before %s", dateArg)
		}
	}

	category, err := archive.ParseCategory(*categoryName)
	if err != nil {
		fatalf("%v", err)
	}

	var writer *export.Writer
	if *doExport {
		if writer, err = export.NewWriter(*dataDir); err != nil {
			fatalf("%v", err)
		}
	}

	// SIGINT/SIGTERM stop scheduling; stored teasers stay
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(*verbose)

	st := openStore(ctx, *dsn)
	defer st.Close()

	service := discovery.NewService(
		dom.NewFetcher(cfg.FetcherConfig()),
		discovery.Config{
			Concurrency:  *concurrency,
			FetchTimeout: cfg.Scraper.FetchTimeout,
			Selectors:    cfg.Scraper.Selectors,
			Site:         cfg.Scraper.Site,
		},
		logger,
	)

	failed := 0
	for _, date := range archive.DatesInInterval(start, end) {
		result, err := service.SyncArchive(ctx, date, category, st)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted; teasers stored so far are kept.")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", date.Format("2006-01-02"), err)
			failed++
			continue
		}

		run := result.Run
		fmt.Printf("%s  found %d  valid %d  stored %d  dropped %d\n",
			run.ArchiveDate, run.Found, run.Valid, run.Stored, run.Failed)

		if writer != nil {
			path, err := writer.Write(date, string(category), result.Page.Records)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to export %s: %v\n", run.ArchiveDate, err)
				failed++
				continue
			}
			fmt.Printf("  exported to %s\n", path)
		}
	}

	// Exit with error code if any day failed
	if failed > 0 {
		os.Exit(1)
	}
}
