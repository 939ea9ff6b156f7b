// Package logging builds the slog loggers used across the robot. Output goes
// to stderr unless a writer or log file is given; stdout is reserved for
// command output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for File.
const (
	fileMaxSizeMB  = 20
	fileMaxBackups = 5
	fileMaxAgeDays = 14
)

// Options selects the handler.
type Options struct {
	Level     string // debug, info, warn, error
	Format    string // text or json
	Writer    io.Writer
	File      string // rotated log file; takes precedence over Writer
	AddSource bool
}

// nopCloser is returned when there is no log file to close.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger. Unknown levels or formats are an error so that a
// typo in the robot config is caught at startup. The closer releases the
// log file; call it once the logger is no longer used.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	var closer io.Closer = nopCloser{}
	w := opts.Writer
	switch {
	case opts.File != "":
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}
		w, closer = lj, lj
	case w == nil:
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, hopts)
	case "json":
		handler = slog.NewJSONHandler(w, hopts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}
	return slog.New(handler), closer, nil
}

// ParseLevel converts a level name to slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Component derives the child logger for one part of the robot.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
