package app

import (
	"io"
	"log/slog"
)

// logLevels maps the Config.LogLevel vocabulary onto slog levels. An
// unknown name reads as the zero level, which is info, matching the CLI
// default.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the App's own slog.Logger from the configured level and
// format. It is never installed globally, so embedded and test instances
// keep isolated log streams.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[level]}
	if format == "text" {
		return slog.New(slog.NewTextHandler(outW, opts))
	}
	return slog.New(slog.NewJSONHandler(outW, opts))
}
