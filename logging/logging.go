package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It discards everything until Setup runs,
// so packages can log from tests without any configuration.
var Logger = zerolog.Nop()

// Setup points Logger at a file. The terminal belongs to the TUI, so logs never
// go to stdout. An empty path keeps logging disabled.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if path == "" {
		Logger = zerolog.Nop()
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}

	Logger = zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return f, nil
}

// For returns Logger tagged with a component name.
func For(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
