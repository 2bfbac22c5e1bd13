package logger

import (
	"strings"
	"sync"
)

// Log levels accepted in log.level.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger. The first call fixes the level; later
// calls return the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(strings.ToLower(strings.TrimSpace(level)))
	})
	return globalLogger
}
