// Package logger prints leveled messages on the terminal and, optionally,
// records every message in a log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the minimum severity printed on the terminal
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet // No output
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "QUIET"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// LogFileName is the file written in LogDir when no path is given
const LogFileName = "bvc.log"

// Logger writes messages at or above its level to the terminal. The log
// file, when enabled, receives every message with a timestamp.
type Logger struct {
	mu       sync.Mutex
	level    Level
	terminal io.Writer
	file     io.WriteCloser
	now      func() time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the logger shared by the package-level functions.
// It prints warnings and errors on stderr.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr, LevelWarn)
	})
	return defaultLogger
}

// New returns a logger writing to w at the given level
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, terminal: w, now: time.Now}
}

// SetLevel sets the terminal level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the terminal level
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level reach the terminal
func (l *Logger) Enabled(level Level) bool {
	return level < LevelQuiet && level >= l.Level()
}

// SetOutput redirects terminal output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.terminal = w
}

// SetVerbosity maps repeated -v and -q flags to a level.
// Warnings are shown by default; each -v lowers the threshold one step,
// each -q raises it, down to Debug and up to Quiet.
func (l *Logger) SetVerbosity(verbose, quiet int) {
	level := LevelWarn - Level(verbose) + Level(quiet)
	l.SetLevel(min(max(level, LevelDebug), LevelQuiet))
}

// EnableFileLogging appends every message, whatever the level, to a log file.
// An empty path selects LogFileName in LogDir.
func (l *Logger) EnableFileLogging(path string) error {
	if path == "" {
		dir, err := LogDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, LogFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	return nil
}

// Close closes the log file if open
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// LogDir returns $XDG_STATE_HOME/bvc/logs, defaulting to ~/.local/state
func LogDir() (string, error) {
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "bvc", "logs"), nil
}

func (l *Logger) logf(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.terminal == nil && l.file == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)

	if l.terminal != nil && level >= l.level {
		fmt.Fprintln(l.terminal, msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %s: %s\n", l.now().Format(time.DateTime), level, msg)
	}
}

// Debug logs the details of each lookup
func (l *Logger) Debug(format string, args ...any) { l.logf(LevelDebug, format, args...) }

// Info logs progress counters and written files
func (l *Logger) Info(format string, args ...any) { l.logf(LevelInfo, format, args...) }

// Warn logs recoverable problems
func (l *Logger) Warn(format string, args ...any) { l.logf(LevelWarn, format, args...) }

// Error logs failures that end the command
func (l *Logger) Error(format string, args ...any) { l.logf(LevelError, format, args...) }

// Package-level convenience functions
func Debug(format string, args ...any) { Default().Debug(format, args...) }
func Info(format string, args ...any)  { Default().Info(format, args...) }
func Warn(format string, args ...any)  { Default().Warn(format, args...) }
func Error(format string, args ...any) { Default().Error(format, args...) }
func Enabled(level Level) bool         { return Default().Enabled(level) }
func SetVerbosity(verbose, quiet int)  { Default().SetVerbosity(verbose, quiet) }
func EnableFileLogging(path string) error {
	return Default().EnableFileLogging(path)
}
func Close() { Default().Close() }
