// Package monitoring holds the diagnostic logger and Prometheus collectors
// shared by the clustering pipeline, storage and HTTP layers.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Tagged returns a logger that prefixes every message with "[tag] ".
// The returned function resolves Logf on each call, so a later SetLogger
// still takes effect.
func Tagged(tag string) func(format string, v ...interface{}) {
	prefix := "[" + tag + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
