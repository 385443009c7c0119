package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	return NewWithWriter(os.Stderr, os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
}

// NewWithWriter builds the service logger on top of w.
func NewWithWriter(w io.Writer, env, level string) zerolog.Logger {
	// For Google Cloud Logging, the level field name should be "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(w).With().Timestamp().Logger()
	if env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if env == "development" {
			lvl = zerolog.DebugLevel
		}
	}
	return logger.Level(lvl)
}
