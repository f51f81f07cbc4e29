// Package logging builds the slog loggers used by cback.
//
// Console output is either a colorized text [Handler] or JSON. When a log
// file is configured, every enabled record is also written to it as JSON:
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//		File:   logFile,
//	})
//
// [LevelTrace] sits below Debug and carries raw external tool output.
// Commands hand the logger to writers through the command context with
// [NewContext] and [FromContext]; writers built without one use
// [NewDiscard]. Tests use [ForTest].
package logging
