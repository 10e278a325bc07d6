package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger wired to stdout for the duration of the
// test, matching the prefix used by the server binary.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[teamchat-test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
