package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// TestTruncate verifies shortening counts runes, not bytes
func TestTruncate(t *testing.T) {
	assert.Equal(t, "kurz", truncate("kurz", 10))
	assert.Equal(t, "genau", truncate("genau", 5))

	umlauts := strings.Repeat("ä", 100)
	cut := truncate(umlauts, 90)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 90, utf8.RuneCountInString(cut))
	assert.Equal(t, strings.Repeat("ä", 87)+"...", cut)

	// a multi-byte rune straddling the old byte limit stays whole
	mixed := strings.Repeat("a", 86) + "überlang und noch mehr Text"
	assert.True(t, utf8.ValidString(truncate(mixed, 90)))
	assert.Equal(t, strings.Repeat("a", 86)+"ü...", truncate(mixed, 90))
}
