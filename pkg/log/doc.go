/*
Package log provides structured logging for the sync core using zerolog.

It wraps zerolog with a single global Logger plus per-concern child
loggers, so every component tags its output consistently without
plumbing a logger instance through every function signature.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Logger.Info().Str("resource", "quran").Msg("sync started")

	reqLog := log.WithRequestID(requestID)
	reqLog.Info().Msg("handling request")

	jobLog := log.WithJobID(jobID)
	jobLog.Warn().Err(err).Msg("job retry")

WithComponent tags a child logger with a component name ("admission",
"syncengine", "jobcontrol"); WithRequestID and WithJobID tag a child
logger with the request or job a log line belongs to, so the sync
job log and job-control event stream can be correlated back to
structured logs by id.

# See Also

  - https://github.com/rs/zerolog
*/
package log
