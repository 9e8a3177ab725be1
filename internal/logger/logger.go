// Package logger wraps zerolog with per-component child loggers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the global logger. pretty selects the console writer.
func Init(level string, pretty bool) {
	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SetOutput replaces the writer, keeping the current level. Used by tests.
func SetOutput(w io.Writer) {
	base = base.Output(w)
}

// For returns a logger tagged with the component name.
func For(component string) *zerolog.Logger {
	l := base.With().Str("component", component).Logger()
	return &l
}

func Get() *zerolog.Logger {
	return &base
}
