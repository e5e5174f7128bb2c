package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/newsarchive/article"
	"github.com/pevans/newsarchive/config"
	"github.com/pevans/newsarchive/dom"
)

func handleArticle(cfg config.FileConfig, args []string) {
	url, rest := splitPositional(args)

	fs := flag.NewFlagSet("article", flag.ExitOnError)
	showTags := fs.Bool("tags", false, "Print the article tags after the text")
	fs.Parse(rest)

	if url == "" && fs.NArg() > 0 {
		url = fs.Arg(0)
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "Error: article requires a URL")
		fmt.Fprintln(os.Stderr, "Usage: newsarchive article <url> [--tags]")
		os.Exit(1)
	}

	logger := newLogger(false)
	if !article.IsSiteURL(url) {
		logger.Warn("URL is not a tagesschau.de article; conversion may be incomplete", "url", url)
	}

	doc, err := dom.NewFetcher(cfg.FetcherConfig()).Fetch(context.Background(), url)
	if err != nil {
		fatalf("%v", err)
	}

	converter := &article.Converter{RemoveTags: cfg.Scraper.RemoveTags}
	fmt.Println(converter.Convert(doc))

	if *showTags {
		fmt.Println()
		fmt.Printf("Tags: %s\n", article.ExtractTags(doc, cfg.Scraper.Selectors))
	}
}
