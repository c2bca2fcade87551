// Package logger provides the structured logging interface used across the
// photo grabber.
//
// It wraps zerolog with a small Logger interface that supports fields and
// error context, pretty console output on stderr, and optional appending to
// a log file. A global logger is configured once with Initialize and read
// with GetLogger; tests use NewTestLogger or NewNopLogger.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("photo_id", 42)
//	log.InfoWithFields("Downloaded photo", map[string]interface{}{"bytes": 1024})
package logger
