package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/adampresley/photogallery/cmd/website/internal/configuration"
)

/*
setupLogger installs the default slog logger. Development builds log
text with source locations, everything else logs JSON.
*/
func setupLogger(config *configuration.Config, version string) {
	var (
		handler slog.Handler
	)

	level := parseLogLevel(config.LogLevel)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if version == "development" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler).With("app", appName, "version", version))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
