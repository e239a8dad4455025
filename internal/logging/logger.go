package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config or flag value to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "off":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging to a single writer
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	level    Level
	enabled  bool
	filePath string
}

var defaultLogger *Logger

// Initialize sets up the default logger with a rotating file in logDir.
func Initialize(logDir string, level Level) error {
	logPath := filepath.Join(logDir, "termview.log")
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	// Touch the file so a bad directory surfaces now instead of on first write.
	if _, err := rotator.Write(nil); err != nil {
		return err
	}

	defaultLogger = &Logger{
		writer:   rotator,
		level:    level,
		enabled:  true,
		filePath: logPath,
	}
	return nil
}

// SetOutput points the default logger at w. Used by tests and the harness.
func SetOutput(w io.Writer, level Level) {
	defaultLogger = &Logger{
		writer:  w,
		level:   level,
		enabled: w != nil,
	}
}

// SetLevel changes the minimum level of the default logger.
func SetLevel(level Level) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defaultLogger.level = level
	defaultLogger.mu.Unlock()
}

// SetEnabled enables or disables logging
func SetEnabled(enabled bool) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.enabled = enabled
		defaultLogger.mu.Unlock()
	}
}

func logf(level Level, prefix, format string, args ...interface{}) {
	l := defaultLogger
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.level || l.writer == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	fmt.Fprintf(l.writer, "[%s] %s: %s\n", timestamp, level.String(), msg)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, "", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logf(LevelError, "", format, args...)
}

// WithError logs an error with context
func WithError(err error, context string) {
	if err != nil {
		logf(LevelError, "", "%s: %v", context, err)
	}
}

// Scope is a component-prefixed view of the default logger.
type Scope struct {
	name string
}

// For returns a logger that prefixes every line with component.
func For(component string) Scope {
	return Scope{name: component}
}

func (s Scope) Debug(format string, args ...interface{}) { logf(LevelDebug, s.name, format, args...) }
func (s Scope) Info(format string, args ...interface{})  { logf(LevelInfo, s.name, format, args...) }
func (s Scope) Warn(format string, args ...interface{})  { logf(LevelWarn, s.name, format, args...) }
func (s Scope) Error(format string, args ...interface{}) { logf(LevelError, s.name, format, args...) }

// Close closes the log file
func Close() error {
	if defaultLogger != nil && defaultLogger.writer != nil {
		if closer, ok := defaultLogger.writer.(io.Closer); ok {
			return closer.Close()
		}
	}
	return nil
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	if defaultLogger != nil {
		return defaultLogger.filePath
	}
	return ""
}
