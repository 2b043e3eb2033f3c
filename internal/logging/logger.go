// =============================================================================
// In-flight Payment Sender - Run Log
// =============================================================================
//
// The run log is a plain-text file with one timestamped line per event:
//
//   2024/01/15 14:30:22 - INFO - Sending payload to the API: 3 customers with purchases
//
// Every component takes a Logger explicitly; there is no package-level logger.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Logger is the logging handle passed to every component.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level is the minimum severity written to the log.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the label written in each log line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config value ("debug", "info", "warn", "error") to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// FileLogger writes leveled lines through the standard log package.
type FileLogger struct {
	out    *log.Logger
	level  Level
	closer io.Closer
	prefix string
}

// New returns a FileLogger writing to w.
func New(w io.Writer, level Level) *FileLogger {
	return &FileLogger{
		out:   log.New(w, "", log.LstdFlags),
		level: level,
	}
}

// Open creates (or appends to) the log file at path, creating its directory.
func Open(path string, level Level) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := New(f, level)
	l.closer = f
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *FileLogger {
	return New(io.Discard, LevelError+1)
}

// WithRunID returns a logger that tags every line with the given run id.
func (l *FileLogger) WithRunID(id string) *FileLogger {
	cp := *l
	cp.prefix = "[" + id + "] "
	cp.closer = nil
	return &cp
}

// Close closes the underlying file, if any.
func (l *FileLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *FileLogger) Debug(msg string, args ...interface{}) { l.write(LevelDebug, msg, args...) }
func (l *FileLogger) Info(msg string, args ...interface{})  { l.write(LevelInfo, msg, args...) }
func (l *FileLogger) Warn(msg string, args ...interface{})  { l.write(LevelWarn, msg, args...) }
func (l *FileLogger) Error(msg string, args ...interface{}) { l.write(LevelError, msg, args...) }

func (l *FileLogger) write(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.out.Printf("- %s - %s%s", level, l.prefix, msg)
}
