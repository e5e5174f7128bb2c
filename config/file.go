package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsarchive/article"
	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/scraper"
	"gopkg.in/yaml.v3"
)

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	// DSN of the SQLite teaser database
	DSN string `yaml:"dsn"`
	// DataDir receives JSON exports
	DataDir string `yaml:"data_dir"`
}

// ScraperConfig represents scraping behaviour from config file.
type ScraperConfig struct {
	FetchTimeout    time.Duration     `yaml:"fetch_timeout"`
	RequestInterval time.Duration     `yaml:"request_interval"`
	Concurrency     int               `yaml:"concurrency"`
	UserAgent       string            `yaml:"user_agent"`
	RemoveTags      []string          `yaml:"remove_tags"`
	Selectors       scraper.Selectors `yaml:"selectors"`
	Site            scraper.Site      `yaml:"site"`
}

// FileConfig represents the structure of ~/.newsarchive/config.yaml.
type FileConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Scraper ScraperConfig `yaml:"scraper"`
}

// Defaults returns the configuration used when nothing is configured.
func Defaults() FileConfig {
	fetch := dom.DefaultFetcherConfig()
	return FileConfig{
		Storage: StorageConfig{
			DSN:     "news.db",
			DataDir: "data",
		},
		Scraper: ScraperConfig{
			FetchTimeout:    fetch.Timeout,
			RequestInterval: fetch.RequestInterval,
			Concurrency:     1,
			UserAgent:       fetch.UserAgent,
			RemoveTags:      article.DefaultRemoveTags,
			Selectors:       scraper.DefaultSelectors(),
			Site:            scraper.DefaultSite(),
		},
	}
}

// Merge returns c with every unset field taken from defaults. A nil c
// yields defaults.
func (c *FileConfig) Merge(defaults FileConfig) FileConfig {
	if c == nil {
		return defaults
	}

	merged := *c
	if merged.Storage.DSN == "" {
		merged.Storage.DSN = defaults.Storage.DSN
	}
	if merged.Storage.DataDir == "" {
		merged.Storage.DataDir = defaults.Storage.DataDir
	}
	if merged.Scraper.FetchTimeout <= 0 {
		merged.Scraper.FetchTimeout = defaults.Scraper.FetchTimeout
	}
	if merged.Scraper.RequestInterval < 0 {
		merged.Scraper.RequestInterval = defaults.Scraper.RequestInterval
	}
	if merged.Scraper.Concurrency <= 0 {
		merged.Scraper.Concurrency = defaults.Scraper.Concurrency
	}
	if merged.Scraper.UserAgent == "" {
		merged.Scraper.UserAgent = defaults.Scraper.UserAgent
	}
	if merged.Scraper.RemoveTags == nil {
		merged.Scraper.RemoveTags = defaults.Scraper.RemoveTags
	}
	merged.Scraper.Selectors = merged.Scraper.Selectors.Merge(defaults.Scraper.Selectors)
	if merged.Scraper.Site.Origin == "" {
		merged.Scraper.Site.Origin = defaults.Scraper.Site.Origin
	}
	if merged.Scraper.Site.DomainMarker == "" {
		merged.Scraper.Site.DomainMarker = defaults.Scraper.Site.DomainMarker
	}

	return merged
}

// LoadConfigFile loads configuration from ~/.newsarchive/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return LoadConfigFrom(filepath.Join(homeDir, ".newsarchive", "config.yaml"))
}

// LoadConfigFrom loads configuration from an explicit path with the same
// rules as LoadConfigFile.
func LoadConfigFrom(configPath string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FetcherConfig returns the dom fetcher settings of the scraper section.
func (c FileConfig) FetcherConfig() dom.FetcherConfig {
	return dom.FetcherConfig{
		Timeout:         c.Scraper.FetchTimeout,
		RequestInterval: c.Scraper.RequestInterval,
		UserAgent:       c.Scraper.UserAgent,
	}
}
