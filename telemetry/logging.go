package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/Azhovan/fromenv"
	"github.com/rs/zerolog"
)

// LogConfig selects the process log format and level.
type LogConfig struct {
	JSON  fromenv.Optional[fromenv.Flag]  `fromenv:"var:TRACING_LOG_JSON,optional,infallible" desc:"If set, logs are written as JSON"`
	Level fromenv.Optional[zerolog.Level] `fromenv:"var:TRACING_LOG_LEVEL,optional" desc:"Minimum log level: trace, debug, info, warn, error or off. Defaults to info"`
}

// MinLevel returns the configured level, or info.
func (c LogConfig) MinLevel() zerolog.Level {
	return c.Level.OrDefault(zerolog.InfoLevel)
}

// NewLogger builds the process logger. A nil w writes to stdout.
func NewLogger(cfg LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var logger zerolog.Logger
	if bool(cfg.JSON.OrDefault(false)) {
		logger = zerolog.New(w)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
	}

	return logger.Level(cfg.MinLevel()).With().Timestamp().Logger()
}
