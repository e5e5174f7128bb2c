package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplitPositional verifies a leading argument is separated from flags
func TestSplitPositional(t *testing.T) {
	positional, rest := splitPositional([]string{"2022-03-01", "--until", "2022-03-05"})
	assert.Equal(t, "2022-03-01", positional)
	assert.Equal(t, []string{"--until", "2022-03-05"}, rest)

	positional, rest = splitPositional([]string{"--export"})
	assert.Equal(t, "", positional)
	assert.Equal(t, []string{"--export"}, rest)

	positional, rest = splitPositional(nil)
	assert.Equal(t, "", positional)
	assert.Empty(t, rest)
}

// TestParseDate verifies command line dates
func TestParseDate(t *testing.T) {
	date, err := parseDate("2022-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), date)

	_, err = parseDate("01.03.2022")
	assert.Error(t, err)
}

// TestGetEnvHelpers verifies environment fallbacks
func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("NEWSARCHIVE_TEST_INT", "7")
	t.Setenv("NEWSARCHIVE_TEST_BAD_INT", "seven")
	t.Setenv("NEWSARCHIVE_TEST_DURATION", "3s")

	assert.Equal(t, 7, getEnvInt("NEWSARCHIVE_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("NEWSARCHIVE_TEST_BAD_INT", 1))
	assert.Equal(t, 3*time.Second, getEnvDuration("NEWSARCHIVE_TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnv("NEWSARCHIVE_TEST_UNSET", "fallback"))
}

// TestLoadSettings_Precedence verifies env vars override the config file
func TestLoadSettings_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`storage:
  dsn: file.db
  data_dir: file-data
scraper:
  concurrency: 2
`), 0o600))

	t.Setenv("NEWSARCHIVE_CONFIG", path)
	t.Setenv("NEWSARCHIVE_DSN", "env.db")

	cfg, err := loadSettings()
	require.NoError(t, err)

	assert.Equal(t, "env.db", cfg.Storage.DSN, "env beats file")
	assert.Equal(t, "file-data", cfg.Storage.DataDir, "file beats defaults")
	assert.Equal(t, 2, cfg.Scraper.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Scraper.FetchTimeout, "defaults fill the rest")
}
