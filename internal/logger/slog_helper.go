package logger

import (
	"io"
	"log/slog"
)

const (
	// LevelTrace sits below slog.LevelDebug so every other level is logged with it.
	LevelTrace = slog.Level(-8)

	// LevelOff sits above slog.LevelError so nothing is logged with it.
	LevelOff = slog.Level(12)
)

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	// logs having severity >= the configured value will be logged.
	case "TRACE":
		programLevel.Set(LevelTrace)
	case "DEBUG":
		programLevel.Set(slog.LevelDebug)
	case "INFO":
		programLevel.Set(slog.LevelInfo)
	case "WARNING":
		programLevel.Set(slog.LevelWarn)
	case "ERROR":
		programLevel.Set(slog.LevelError)
	case "OFF":
		programLevel.Set(LevelOff)
	}
}

// replaceAttr renames the level key to severity and maps slog level names onto
// the configured severity names.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		switch {
		case level <= LevelTrace:
			a.Value = slog.StringValue("TRACE")
		case level == slog.LevelWarn:
			a.Value = slog.StringValue("WARNING")
		}
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func createHandler(w io.Writer, programLevel *slog.LevelVar, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       programLevel,
		ReplaceAttr: replaceAttr,
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
