// Package logging builds the structured logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Options select where logs go and how verbose they are.
type Options struct {
	// Level is 0 (warn), 1 (info) or 2 (debug).
	Level int
	// File, when set, receives JSON logs. An existing file is truncated.
	File string
	// Verbose sends text logs to Stderr at debug level when no File is set.
	// Level does not apply to this output.
	Verbose bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns the logger described by opts and a close function for any opened file.
// Without a file and without verbose output, logs are discarded.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := levelFor(opts.Level)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		return logger, f.Close, nil
	}
	if !opts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), noop, nil
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})), noop, nil
}

func levelFor(level int) slog.Level {
	switch {
	case level >= 2:
		return slog.LevelDebug
	case level == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func noop() error { return nil }
