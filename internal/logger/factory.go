package logger

import (
	"github.com/charmbracelet/log"
)

// Default creates a new default charm log that respects the global log level
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(writer(), log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Setup configures the global logger at level, or at debug level with
// callers reported when debug is set.
func Setup(debug bool, level log.Level) {
	log.SetOutput(writer())
	log.SetReportTimestamp(debug)
	log.SetReportCaller(debug)
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}
