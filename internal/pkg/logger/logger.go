package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Dev mode logs at debug level with colours,
// prod at info level without.
func New(appMode string) zerolog.Logger {
	return NewWithWriter(appMode, os.Stdout)
}

// NewWithWriter is New with an explicit sink
func NewWithWriter(appMode string, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    appMode == "prod",
	}

	level := zerolog.DebugLevel
	if appMode == "prod" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("mode", appMode).
		Logger()
}
