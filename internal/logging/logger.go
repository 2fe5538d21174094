// Package logging provides leveled stderr logging with secret redaction.
// Output goes to stderr so guarded values never mix with command output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes leveled, optionally colored messages for one component.
type Logger struct {
	component string
	debug     bool
	noColor   bool
	out       io.Writer
}

// New creates a root logger.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor, out: os.Stderr}
}

// Named returns a child logger whose messages carry a component prefix.
func (l *Logger) Named(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

func (l *Logger) emit(mark, color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		msg = l.component + ": " + msg
	}
	if l.noColor || color == "" {
		fmt.Fprintf(l.out, "%s %s\n", mark, msg)
		return
	}
	fmt.Fprintf(l.out, "\033[%sm%s\033[0m %s\n", color, mark, msg)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("✓", "32", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("⚠", "33", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("✗", "31", format, args...)
}

// Debug logs a message only when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("[DEBUG]", "36", format, args...)
}

// Secret is a value that always renders as [REDACTED] in log output.
type Secret string

func (s Secret) String() string   { return "[REDACTED]" }
func (s Secret) GoString() string { return "[REDACTED]" }

// Redact replaces occurrences of the given secrets in s with [REDACTED].
// Trivially short values are left alone to avoid mangling ordinary text.
func Redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if len(secret) > 3 {
			s = strings.ReplaceAll(s, secret, "[REDACTED]")
		}
	}
	return s
}
