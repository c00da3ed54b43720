package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats for the console writer.
const (
	OutputConsole = "console"
	OutputJSON    = "json"
)

// Options configure New.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Output selects the Console format: console or json.
	Output string
	// File receives JSON lines when set. The dashboard log pane tails it.
	File string
	// Console receives log lines when non-nil, typically os.Stderr in
	// headless mode. Nil while the dashboard owns the terminal.
	Console io.Writer
}

// nopCloser is returned when no file was opened.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger. The returned closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log level %q: %w", s, err)
		}
		level = parsed
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	if opts.Console != nil {
		switch opts.Output {
		case OutputJSON:
			writers = append(writers, opts.Console)
		case OutputConsole, "":
			writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.DateTime})
		default:
			closer.Close()
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log output %q must be console or json", opts.Output)
		}
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
