// Package logs builds the process logger: human-readable text on the
// terminal plus JSON lines in the data directory.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

var level = new(slog.LevelVar)

// SetLevel parses debug, info, warn or error and applies it to every
// logger built by New.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	level.Set(l)
	return nil
}

type Options struct {
	// Terminal receives text output; nil means stderr.
	Terminal io.Writer
	// FilePath receives JSON output; empty disables the file.
	FilePath string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for its file. A log file that cannot
// be opened is reported on the terminal and skipped.
func New(opts Options) (*slog.Logger, io.Closer) {
	terminal := opts.Terminal
	if terminal == nil {
		terminal = os.Stderr
	}
	terminalHandler := slog.NewTextHandler(terminal, &slog.HandlerOptions{Level: level})
	handlers := []slog.Handler{terminalHandler}

	var closer io.Closer = nopCloser{}
	if opts.FilePath != "" {
		f, err := openLogFile(opts.FilePath)
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "open log file", 0)
			record.Add("path", opts.FilePath, "error", err)
			_ = terminalHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
			closer = f
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
