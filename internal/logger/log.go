// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init sets up the global logger. Pretty output is for terminals during
// development; the default is JSON lines for log shippers.
func Init(level string, pretty bool) {
	lvl := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = l
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	zlog.Logger = zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "fleettrack").
		Logger()

	// Route anything still using the standard library logger through zerolog.
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}
