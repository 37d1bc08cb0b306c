package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, apperror.Wrap(apperror.InvalidArgument, fmt.Sprintf("log level %q", s), err)
	}
	return l, nil
}

// New returns a logger writing to w in the given format ("text" or "json").
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: l}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, apperror.New(apperror.InvalidArgument, fmt.Sprintf("unknown log format %q", format))
	}
}
