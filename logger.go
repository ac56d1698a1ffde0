package player

import "log"

// Logger is the package's minimal override point for diagnostic output
// (stream-selection warnings, swallowed transient errors). Defaults to
// the standard library logger; callers can redirect it with SetLogger,
// typically to internal/logger's structured sink.
type Logger interface {
	Printf(format string, v ...any)
}

var pkgLogger Logger = log.Default()

// SetLogger overrides the package-level logger.
func SetLogger(logger Logger) {
	if logger != nil {
		pkgLogger = logger
	}
}
