package helper

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the process-wide structured logger.
var Log zerolog.Logger = NewLogger("resto-op")

func NewLogger(service string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}
