package observe

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LoggerConfig configures the root logger.
type LoggerConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info".
	Level string

	// Pretty switches to the human-readable console writer.
	Pretty bool

	// Writer is the log destination. Default: os.Stderr.
	Writer io.Writer

	// Service is stamped on every line when set.
	Service string
}

// ParseLevel parses a string log level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds a configured root logger. Components receive children
// of this logger through their Configs.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	ctx := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger()
}
