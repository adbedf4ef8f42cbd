package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[LogLevel]string{
	LogLevelError: "ERROR",
	LogLevelWarn:  "WARN",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
	LogLevelTrace: "TRACE",
}

// String returns the LOG_LEVEL spelling of the level
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel maps a LOG_LEVEL value to a level. Unknown values fall back to
// INFO and report false.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError, true
	case "WARN", "WARNING":
		return LogLevelWarn, true
	case "INFO":
		return LogLevelInfo, true
	case "DEBUG":
		return LogLevelDebug, true
	case "TRACE":
		return LogLevelTrace, true
	}
	return LogLevelInfo, false
}

// Logger provides leveled logging
type Logger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a new logger with the specified level writing to stderr
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level, out: log.Default()}
}

// NewWriterLogger creates a logger that writes to w
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return NewLogger(level)
}

// Tagged returns a logger sharing this logger's level and output that
// prefixes every message with [tag]
func (l *Logger) Tagged(tag string) *TaggedLogger {
	return &TaggedLogger{Logger: l, tag: "[" + tag + "] "}
}

func (l *Logger) emit(level LogLevel, prefix, format string, args ...interface{}) {
	if l.level >= level {
		l.out.Printf("["+level.String()+"] "+prefix+format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LogLevelError, "", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LogLevelWarn, "", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LogLevelInfo, "", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LogLevelDebug, "", format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.emit(LogLevelTrace, "", format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// SetLevel changes the verbosity
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// TaggedLogger is a Logger bound to a component tag
type TaggedLogger struct {
	*Logger
	tag string
}

func (t *TaggedLogger) Error(format string, args ...interface{}) {
	t.emit(LogLevelError, t.tag, format, args...)
}

func (t *TaggedLogger) Warn(format string, args ...interface{}) {
	t.emit(LogLevelWarn, t.tag, format, args...)
}

func (t *TaggedLogger) Info(format string, args ...interface{}) {
	t.emit(LogLevelInfo, t.tag, format, args...)
}

func (t *TaggedLogger) Debug(format string, args ...interface{}) {
	t.emit(LogLevelDebug, t.tag, format, args...)
}

func (t *TaggedLogger) Trace(format string, args ...interface{}) {
	t.emit(LogLevelTrace, t.tag, format, args...)
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
