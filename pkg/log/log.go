// Package log provides the structured logging wrapper used across the
// sync core. It wraps zerolog with a global logger plus per-concern
// child loggers so every component tags its output consistently.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level represents a configured log level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger tagged with a component name,
// e.g. "sync", "admission", "jobcontrol".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithRequestID creates a child logger tagged with an inbound request id.
func WithRequestID(requestID string) zerolog.Logger {
	return Logger.With().Str("request_id", requestID).Logger()
}

// WithJobID creates a child logger tagged with a job id.
func WithJobID(jobID string) zerolog.Logger {
	return Logger.With().Str("job_id", jobID).Logger()
}

// Info logs at info level.
func Info(msg string) { Logger.Info().Msg(msg) }

// Debug logs at debug level.
func Debug(msg string) { Logger.Debug().Msg(msg) }

// Warn logs at warn level.
func Warn(msg string) { Logger.Warn().Msg(msg) }

// Error logs at error level.
func Error(msg string) { Logger.Error().Msg(msg) }

// Errorf logs an error with a message at error level.
func Errorf(msg string, err error) { Logger.Error().Err(err).Msg(msg) }

// Fatal logs at fatal level and exits.
func Fatal(msg string) { Logger.Fatal().Msg(msg) }
