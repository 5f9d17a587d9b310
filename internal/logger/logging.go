// Package logger provides modifications to charmbracelet/log's default logger to be used in various files/packages.
//
// Loggers write to stderr since stdout carries the IPC stream.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stderr
)

// New creates a new default charm log.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(writer(), log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithConfig creates a new charm log with custom config
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(writer(), log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}

// SetOutput redirects loggers created afterwards, and the global logger, to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
	log.SetOutput(w)
}

func writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}
