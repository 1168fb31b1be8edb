package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger: JSON to stdout, plus a JSON copy to
// cfg.File when one is configured. The returned cleanup closes the file.
func SetupLogger(cfg LogConfig) (*slog.Logger, func() error) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	if cfg.File == "" {
		return slog.New(stdout), func() error { return nil }
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(stdout)
		logger.Error("failed to open log file, using stdout only", "error", err, "file", cfg.File)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(slogmulti.Fanout(stdout, fileHandler)), file.Close
}

// SetupCLILogger builds the CLI logger: readable text on stderr, fanned out to
// w as JSON when w is not nil.
func SetupCLILogger(w io.Writer, level slog.Level) *slog.Logger {
	stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if w == nil {
		return slog.New(stderr)
	}
	return slog.New(slogmulti.Fanout(stderr, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}
