package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger writing to w (stdout when nil) at the given
// level, tagged with the service name. The stdlib log package is pointed at
// the same writer.
func New(w io.Writer, level, service string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	log.SetOutput(w)
	return slog.New(h).With(slog.String("service", service))
}

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
