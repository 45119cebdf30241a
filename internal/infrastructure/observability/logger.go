package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func NewLogger(level string) *zerolog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo lets embedders redirect agent logs away from the host
// application's stdout.
func NewLoggerTo(w io.Writer, level string) *zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "atlantis").Logger()
	return &logger
}
