// Package debug provides conditional debug logging for treeselect.
//
// Debug logging is enabled by setting the TREESELECT_DEBUG environment
// variable:
//
//	TREESELECT_DEBUG=1 treeselect items.yml
//
// The terminal belongs to the TUI while it runs, so main redirects output to
// a log file with SetOutput. When disabled (default), all functions are
// no-ops.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TREESELECT_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled turns debug logging on or off.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[TREESELECT] ", log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, typically to the file returned by
// tea.LogToFile.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = log.New(w, "[TREESELECT] ", log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

func printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// Log writes a printf-style debug message if debug logging is enabled.
func Log(format string, args ...any) {
	printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	printf("%s took %v", name, d)
}

// Trace logs function entry and exit with timing.
//
//	defer debug.Trace("Compute")()
func Trace(name string) func() {
	if !Enabled() {
		return func() {}
	}
	printf("-> %s", name)
	start := time.Now()
	return func() {
		printf("<- %s (%v)", name, time.Since(start))
	}
}
