// Package debug provides conditional, structured debug logging for spread.
//
// Debug logging is enabled by setting the SPREAD_DEBUG environment variable:
//
//	SPREAD_DEBUG=1 spread export --view network --out net.svg
//
// Messages go to stderr through a charmbracelet/log logger. When disabled
// (default) the helpers return before formatting anything.
//
//	debug.Log("placed %d cells", n)
//	debug.Logger().Info("tick", "alpha", alpha)
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  = newLogger(os.Stderr, log.InfoLevel)
)

func init() {
	if os.Getenv("SPREAD_DEBUG") != "" {
		SetEnabled(true)
	}
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          "spread",
		Level:           level,
	})
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled switches debug output on or off.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// SetOutput redirects all log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level := logger.GetLevel()
	logger = newLogger(w, level)
}

// Logger returns the shared structured logger. Info and above are always
// written; Debug only when debug logging is enabled.
func Logger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	Logger().Debug(fmt.Sprintf(format, args...))
}

// LogTiming writes how long an operation took.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	Logger().Debug("timing", "op", name, "took", d)
}

// LogIf writes a debug message only if cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogEnterExit logs entry and exit of a function with its duration:
//
//	defer debug.LogEnterExit("Layout")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	Logger().Debug("-> " + name)
	start := time.Now()
	return func() {
		Logger().Debug("<- "+name, "took", time.Since(start))
	}
}

// Section logs a header to group related debug output.
func Section(name string) {
	if !Enabled() {
		return
	}
	Logger().Debug("=== " + name + " ===")
}
