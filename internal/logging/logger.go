package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger provides prefixed key/value logging for the verification pipeline.
// Output goes to stderr so the CLI can reserve stdout for result JSON.
type Logger struct {
	prefix string
	debug  bool
	logger *log.Logger
}

// NewLogger creates a new logger with a prefix. Debug output is enabled when
// LOG_LEVEL=debug.
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		debug:  strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"),
		logger: log.New(os.Stderr, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// WithPrefix returns a derived logger with a nested prefix, e.g. "worker/queue".
func (l *Logger) WithPrefix(sub string) *Logger {
	return NewLogger(l.prefix + "/" + sub)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs; dropped unless debug
// logging is enabled.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var kv strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
