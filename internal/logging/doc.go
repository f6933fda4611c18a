// Package logging provides structured logging for thanks runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. User-facing progress is printed by the commands
// themselves; this log records the detail behind it (why an item was
// skipped, which git invocation failed) for post-hoc debugging.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(dataDir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("auto-match started", "branch", "main")
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	runLogger := logger.WithCommand("auto").WithBranch("main")
//	itemLogger := runLogger.WithItem("4f2a9c.pr")
//	itemLogger.Debug("not on target branch")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"not on target branch","command":"auto","branch":"main","item":"4f2a9c.pr"}
//
// # Log Rotation
//
// The log lives in the data directory next to the tracked records and is
// rotated by size:
//
//	logger, err := logging.NewLoggerWithRotation(dataDir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//
// Rotated files are named thanks.log.1, thanks.log.2, etc., where .1 is the
// most recent backup.
//
// # Testing
//
// Use [NopLogger] to discard all log output.
package logging
