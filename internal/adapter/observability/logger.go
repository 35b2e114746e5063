// Package observability provides the daemon's Logger, adapted from the
// teacher's observability.ReviewLogger: a thin structured-logging interface
// backed by the standard log package, widened with an error-level method
// and fields for the domain events this core actually emits.
package observability

import "log"

// Logger is implemented by anything that can record structured log lines.
// Background tasks (persistence flush, ContentStore GC) log through this
// interface and never propagate errors to their callers.
type Logger interface {
	LogInfo(message string, fields map[string]any)
	LogWarning(message string, fields map[string]any)
	LogError(message string, fields map[string]any)
}

// StdLogger backs Logger with the standard library's log package.
type StdLogger struct{}

// NewStdLogger constructs a Logger that writes through the standard log
// package.
func NewStdLogger() *StdLogger {
	return &StdLogger{}
}

// LogInfo logs an informational message with structured fields.
func (l *StdLogger) LogInfo(message string, fields map[string]any) {
	log.Printf("info: %s %v", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *StdLogger) LogWarning(message string, fields map[string]any) {
	log.Printf("warning: %s %v", message, fields)
}

// LogError logs an error message with structured fields. Per spec §7,
// Internal errors are logged here and never surfaced to the reviewer as
// actionable.
func (l *StdLogger) LogError(message string, fields map[string]any) {
	log.Printf("error: %s %v", message, fields)
}
