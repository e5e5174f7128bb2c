package main

import (
	"fmt"
	"os"

	"github.com/pevans/newsarchive/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Get subcommand
	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "scrape":
		handleScrape(cfg, args)
	case "article":
		handleArticle(cfg, args)
	case "list":
		handleList(cfg, args)
	case "runs":
		handleRuns(cfg, args)
	case "schema":
		handleSchema(cfg, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// loadSettings merges defaults, the config file and the environment, in
// increasing order of precedence. Command flags are applied on top by each
// handler.
func loadSettings() (config.FileConfig, error) {
	var (
		file *config.FileConfig
		err  error
	)
	if path := os.Getenv("NEWSARCHIVE_CONFIG"); path != "" {
		file, err = config.LoadConfigFrom(path)
	} else {
		file, err = config.LoadConfigFile()
	}
	if err != nil {
		return config.FileConfig{}, err
	}

	cfg := file.Merge(config.Defaults())
	cfg.Storage.DSN = getEnv("NEWSARCHIVE_DSN", cfg.Storage.DSN)
	cfg.Storage.DataDir = getEnv("NEWSARCHIVE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Scraper.Concurrency = getEnvInt("NEWSARCHIVE_CONCURRENCY", cfg.Scraper.Concurrency)
	cfg.Scraper.FetchTimeout = getEnvDuration("NEWSARCHIVE_FETCH_TIMEOUT", cfg.Scraper.FetchTimeout)

	return cfg, nil
}

func printUsage() {
	fmt.Println("newsarchive - tagesschau.de archive scraper")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  newsarchive <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scrape     Scrape the archive of one day or a range of days")
	fmt.Println("  article    Print an article as markdown")
	fmt.Println("  list       List stored teasers")
	fmt.Println("  runs       Show recent scrape runs")
	fmt.Println("  schema     Create (or drop) the database tables")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  NEWSARCHIVE_CONFIG         Path to config file (default: ~/.newsarchive/config.yaml)")
	fmt.Println("  NEWSARCHIVE_DSN            Path to teaser database (default: news.db)")
	fmt.Println("  NEWSARCHIVE_DATA_DIR       Directory for JSON exports (default: data)")
	fmt.Println("  NEWSARCHIVE_CONCURRENCY    Teasers processed in parallel (default: 1)")
	fmt.Println("  NEWSARCHIVE_FETCH_TIMEOUT  Timeout per article fetch (default: 10s)")
}
