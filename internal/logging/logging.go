// Package logging provides global logging functions for csrfkiller.
// Use dot import to access L_info, L_error, etc. directly, matching the
// call style the rest of the codebase uses for structured key/value logs.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	logger *log.Logger
	once   sync.Once
)

// Config holds logging configuration.
type Config struct {
	Debug      bool
	TimeFormat string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{TimeFormat: "15:04:05"}
}

// Init initializes the global logger. Safe to call multiple times; only the
// first call's Config takes effect.
func Init(cfg *Config) {
	once.Do(func() {
		if cfg == nil {
			cfg = DefaultConfig()
		}

		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      cfg.TimeFormat,
		})

		if cfg.Debug {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.InfoLevel)
		}
	})
}

func ensureInit() {
	if logger == nil {
		Init(nil)
	}
}

// L_debug logs at debug level.
func L_debug(msg string, keyvals ...interface{}) {
	ensureInit()
	logger.Debug(msg, keyvals...)
}

// L_info logs at info level.
func L_info(msg string, keyvals ...interface{}) {
	ensureInit()
	logger.Info(msg, keyvals...)
}

// L_warn logs at warn level.
func L_warn(msg string, keyvals ...interface{}) {
	ensureInit()
	logger.Warn(msg, keyvals...)
}

// L_error logs at error level.
func L_error(msg string, keyvals ...interface{}) {
	ensureInit()
	logger.Error(msg, keyvals...)
}

// L_fatal logs at fatal level and exits the process (exit code 1), matching
// the KillerError semantics of spec.md §7.
func L_fatal(msg string, keyvals ...interface{}) {
	ensureInit()
	logger.Fatal(msg, keyvals...)
}

// SetDebug toggles debug-level logging at runtime (wired to a future -v flag).
func SetDebug(on bool) {
	ensureInit()
	if on {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
