// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
)

// Init installs a text handler on stdout as the default logger.
func Init(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	l := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}
