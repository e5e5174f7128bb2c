package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pevans/newsarchive/export"
	"github.com/pevans/newsarchive/store"
	"github.com/pevans/newsarchive/teaser"
)

// printListTable prints teasers in human-readable format
func printListTable(records []teaser.Record, total int) {
	if len(records) == 0 {
		fmt.Println("No teasers stored.")
		return
	}

	fmt.Printf("Showing %d of %d teasers\n\n", len(records), total)

	for _, r := range records {
		headline := r.Headline
		if r.Topline != nil {
			headline = *r.Topline + ": " + headline
		}
		headline = truncate(headline, 90)

		shorttext := truncate(r.Shorttext, 150)

		fmt.Println(headline)
		fmt.Printf("   %s", r.Date.Format("2006-01-02 15:04"))
		if r.Tags != nil && *r.Tags != "" {
			fmt.Printf(" | Tags: %s", *r.Tags)
		}
		fmt.Println()
		fmt.Printf("   %s\n", shorttext)
		fmt.Printf("   URL: %s\n", r.Link)
		fmt.Printf("   ID: %s\n", r.ID)
		fmt.Println()
	}
}

// printListJSON prints teasers in the export JSON form
func printListJSON(records []teaser.Record, total int) {
	items := make([]export.Item, 0, len(records))
	for _, r := range records {
		items = append(items, export.ToItem(r))
	}

	output := map[string]any{
		"teaser": items,
		"total":  total,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(data))
}

// printListCompact prints one line per teaser
func printListCompact(records []teaser.Record) {
	if len(records) == 0 {
		fmt.Println("No teasers stored.")
		return
	}

	for _, r := range records {
		fmt.Printf("%s %s %s\n", r.ID[:8], r.Date.Format("2006-01-02"), r.Headline)
	}
}

// printRuns prints the run log as a table
func printRuns(runs []store.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	fmt.Printf("%-36s %-10s %-10s %6s %6s %6s %6s %8s  %s\n",
		"RUN", "DATE", "CATEGORY", "FOUND", "VALID", "STORED", "FAILED", "TOOK", "ERROR")
	for _, run := range runs {
		errText := ""
		if run.Error != nil {
			errText = *run.Error
		}
		took := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)

		fmt.Printf("%-36s %-10s %-10s %6d %6d %6d %6d %8s  %s\n",
			run.RunID.String(),
			run.ArchiveDate,
			run.Category,
			run.Found,
			run.Valid,
			run.Stored,
			run.Failed,
			took,
			errText,
		)
	}
}

// truncate shortens s to at most width runes, ending in "..." when cut
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
