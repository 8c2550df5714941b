// Package logging holds the process-wide structured logger. Library code
// logs recoverable problems (rejected selections, malformed hierarchy
// nodes) through it; the CLI configures its level and sinks.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once      sync.Once
	mu        sync.Mutex
	singleton *log.Logger
	rotating  *lumberjack.Logger
)

// FileConfig holds rotating log file settings.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns file settings for path.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "splinter",
	})
}

func get() *log.Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if singleton == nil {
			l := newLogger(os.Stderr)
			l.SetLevel(log.WarnLevel)
			singleton = l
		}
	})
	mu.Lock()
	defer mu.Unlock()
	return singleton
}

// Init replaces the logger. An empty file path logs to stderr only; when
// console is false and a path is given, only the file receives output.
func Init(level string, file FileConfig, console bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	var lj *lumberjack.Logger
	if file.Path != "" {
		lj = &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
			LocalTime:  true,
		}
		writers = append(writers, lj)
	}
	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}
	l := newLogger(w)
	l.SetLevel(lvl)
	if lj != nil {
		// Colour codes do not belong in files.
		l.SetFormatter(log.LogfmtFormatter)
	}

	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	if rotating != nil {
		_ = rotating.Close()
	}
	singleton = l
	rotating = lj
	return nil
}

// SetOutput points the logger at w, keeping its level. Used by tests to
// capture warnings.
func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

// SetLevel changes the minimum level.
func SetLevel(level log.Level) {
	get().SetLevel(level)
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	return err
}

// Logger returns the underlying logger.
func Logger() *log.Logger {
	return get()
}

func Debug(msg string, keyvals ...interface{}) {
	get().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	get().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	get().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	get().Error(msg, keyvals...)
}

func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// SetFormat selects the output format: "text", "json" or "logfmt".
func SetFormat(name string) error {
	switch name {
	case "", "text":
		get().SetFormatter(log.TextFormatter)
	case "json":
		get().SetFormatter(log.JSONFormatter)
	case "logfmt":
		get().SetFormatter(log.LogfmtFormatter)
	default:
		return fmt.Errorf("logging: unknown format %q", name)
	}
	return nil
}
