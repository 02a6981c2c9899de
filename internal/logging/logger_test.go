package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestSanitizeLogLineMasksAPIKeys(t *testing.T) {
	line := "request with key sk-90e0dd863b8c4e0d879a02851a0ee194 sent"
	got := sanitizeLogLine(line)
	assert.Equal(t, "request with key sk-*** sent", got)
	assert.NotContains(t, got, "90e0dd86")
}

func TestSanitizeLogLineKeepsShortTokens(t *testing.T) {
	// Short sk- prefixes (e.g. in prose) are left alone.
	line := "see sk-doc for details"
	assert.Equal(t, line, sanitizeLogLine(line))
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := Nop()
	logger.Debug("debug %d", 1)
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	assert.Equal(t, Nop(), OrNop(nil))
}
