// Package logging provides the operator-facing diagnostic logger shared by
// every component. It is distinct from src/events, which carries discrete,
// named lifecycle signals for a GUI activity log, and from src/progress,
// which carries the continuous completion fraction: logging is for "what
// happened and why".
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// Init configures the global logger. level is parsed case-insensitively and
// falls back to "info" if unrecognized.
func Init(level string, noColor bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if noColor {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: false})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: false})
	}
}

// Get returns the configured logger, initializing it with defaults on first
// use if Init was never called.
func Get() *logrus.Logger {
	if logger == nil {
		Init("info", false)
	}
	return logger
}

// With returns a log entry carrying the given fields, for call sites that
// want structured context (e.g. target path, role, source url).
func With(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}
