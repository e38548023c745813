// Package logging provides the editor's debug trace log. Grounded on the
// teacher's debug.LogToFile (stdlib log.Logger, append-only file) but
// made path-configurable via ZICRO_DEBUG_LOG, since a full-screen TUI
// cannot tolerate stray stdout writes corrupting the alt-screen buffer.
package logging

import (
	"io"
	"log"
	"os"
)

const envVar = "ZICRO_DEBUG_LOG"

// disabled discards everything when ZICRO_DEBUG_LOG is unset (spec §6).
var disabled = log.New(io.Discard, "", 0)

// Open returns a logger writing to the path named by ZICRO_DEBUG_LOG, or
// a no-op logger if the variable is unset or the file cannot be opened.
// The returned close func is a no-op for the discard logger.
func Open() (*log.Logger, func() error) {
	path := os.Getenv(envVar)
	if path == "" {
		return disabled, func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return disabled, func() error { return nil }
	}
	logger := log.New(f, "[zicro] ", log.LstdFlags|log.Lmicroseconds)
	return logger, f.Close
}
