package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsarchive/teaser"
)

// Writer saves scraped teasers as JSON files in a year/month directory tree.
type Writer struct {
	dataDir string
}

// Item is the JSON form of one teaser.
type Item struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Topline   *string `json:"topline,omitempty"`
	Headline  string  `json:"headline"`
	Shorttext string  `json:"shorttext"`
	Link      string  `json:"link"`
	Tags      *string `json:"tags,omitempty"`
}

// File is the document written for one archive page.
type File struct {
	Teaser []Item `json:"teaser"`
}

// NewWriter creates a writer rooted at dataDir, creating it if needed.
func NewWriter(dataDir string) (*Writer, error) {
	// 0700: owner-only access
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Writer{
		dataDir: dataDir,
	}, nil
}

// Path returns where the teasers of a day and category are written, e.g.
// <dataDir>/2022/03/2022-03-01_all.json.
func (w *Writer) Path(date time.Time, category string) string {
	name := date.Format("2006-01-02") + "_" + category + ".json"
	return filepath.Join(w.dataDir, date.Format("2006"), date.Format("01"), name)
}

// Write saves the records of one archive page and returns the file path.
// An existing file for the same day and category is replaced.
func (w *Writer) Write(date time.Time, category string, records []teaser.Record) (string, error) {
	path := w.Path(date, category)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	file := File{Teaser: make([]Item, 0, len(records))}
	for _, r := range records {
		file.Teaser = append(file.Teaser, ToItem(r))
	}

	data, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal teasers: %w", err)
	}

	// 0600: owner-only read/write
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write teasers: %w", err)
	}

	return path, nil
}

// Read loads a previously written file.
func (w *Writer) Read(date time.Time, category string) (*File, error) {
	data, err := os.ReadFile(w.Path(date, category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Nothing exported yet (not an error)
		}
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal export: %w", err)
	}

	return &file, nil
}

// ToItem converts a record to its JSON form.
func ToItem(r teaser.Record) Item {
	return Item{
		ID:        r.ID,
		Date:      r.Timestamp(),
		Topline:   r.Topline,
		Headline:  r.Headline,
		Shorttext: r.Shorttext,
		Link:      r.Link,
		Tags:      r.Tags,
	}
}
