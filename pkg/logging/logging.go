// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. format "json" writes one JSON object per
// line, anything else a human readable console format.
func Setup(level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger = New(os.Stdout, lvl, format)
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// New builds a logger writing to w
func New(w io.Writer, lvl zerolog.Level, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(lvl)
}

// Component creates a logger tagged with a component name
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
