package logging

import "log/slog"

// LevelTrace is below Debug and carries raw tool output line by line.
const LevelTrace = slog.Level(-8)

// LevelFromVerbosity maps the number of -v flags to a log level.
// Zero shows warnings and errors only.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// levelName renders a level for the text handler, naming LevelTrace.
func levelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}
