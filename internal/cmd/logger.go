package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}
}

// newHandler picks a colored handler for terminals and JSON otherwise.
func newHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: opts,
		})
	}

	return slog.NewJSONHandler(w, opts)
}

// initLogger installs the default logger. Logs go to stderr, stdout carries
// the rendered feed.
func initLogger(level string) error {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(newHandler(os.Stderr, parsedLevel)))

	return nil
}
