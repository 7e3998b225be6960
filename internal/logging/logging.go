package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/internal/config"
)

// New builds the process logger. Pretty output is meant for terminals; the
// JSON form is for collectors. An unknown level falls back to info and is
// reported so the caller can log it.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	var err error
	level, perr := zerolog.ParseLevel(cfg.Level)
	if perr != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
		if perr != nil {
			err = fmt.Errorf("unknown log level %q: %w", cfg.Level, perr)
		}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), err
}
