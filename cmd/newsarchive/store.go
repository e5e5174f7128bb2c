package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pevans/newsarchive/config"
	"github.com/pevans/newsarchive/store"
)

func handleList(cfg config.FileConfig, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dsn := fs.String("dsn", cfg.Storage.DSN, "Path to teaser database")
	limit := fs.Int("limit", 20, "Maximum number of teasers (0 for all)")
	format := fs.String("format", "table", "Output format: table, json or compact")
	fs.Parse(args)

	ctx := context.Background()
	st := openStore(ctx, *dsn)
	defer st.Close()

	records, err := st.List(ctx, *limit)
	if err != nil {
		fatalf("%v", err)
	}
	total, err := st.Count(ctx)
	if err != nil {
		fatalf("%v", err)
	}

	switch *format {
	case "json":
		printListJSON(records, total)
	case "compact":
		printListCompact(records)
	case "table":
		printListTable(records, total)
	default:
		fatalf("unknown format: %s", *format)
	}
}

func handleRuns(cfg config.FileConfig, args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dsn := fs.String("dsn", cfg.Storage.DSN, "Path to teaser database")
	limit := fs.Int("limit", 10, "Maximum number of runs (0 for all)")
	fs.Parse(args)

	ctx := context.Background()
	st := openStore(ctx, *dsn)
	defer st.Close()

	runs, err := st.ListRuns(ctx, *limit)
	if err != nil {
		fatalf("%v", err)
	}

	printRuns(runs)
}

func handleSchema(cfg config.FileConfig, args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	dsn := fs.String("dsn", cfg.Storage.DSN, "Path to teaser database")
	drop := fs.Bool("drop", false, "Drop all tables and their contents")
	fs.Parse(args)

	ctx := context.Background()
	st, err := store.Open(*dsn)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	if *drop {
		if err := st.DropSchema(ctx); err != nil {
			fatalf("failed to drop schema: %v", err)
		}
		fmt.Printf("Dropped tables in %s\n", *dsn)
		return
	}

	if err := st.EnsureSchema(ctx); err != nil {
		fatalf("failed to create schema: %v", err)
	}
	fmt.Printf("Schema ready in %s\n", *dsn)
}
