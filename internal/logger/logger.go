// Package logger builds the zerolog loggers used by the daemon and the
// sync paths. Interactive commands print through internal/cli instead.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// New returns a JSON logger writing to w at the named level. Unknown
// level names fall back to info. When pretty is set the output goes
// through a zerolog console writer.
func New(level string, pretty bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
