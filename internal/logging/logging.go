package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// Format selects how records are rendered on the console.
type Format string

const (
	// FormatText is the colorized, human oriented console format.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat for anything but text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseFormat parses a --log-format value. An empty value means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

// Config describes the loggers built by New.
type Config struct {
	Level  slog.Level
	Format Format
	// Output receives console records. Nil means os.Stderr.
	Output io.Writer
	// File, when set, additionally receives every enabled record as JSON,
	// whatever the console Format is.
	File io.Writer
}

// New builds a logger from cfg. Unknown formats render as text.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var console slog.Handler
	if cfg.Format == FormatJSON {
		console = slog.NewJSONHandler(out, opts)
	} else {
		console = NewHandler(out, opts)
	}
	if cfg.File == nil {
		return slog.New(console)
	}
	return slog.New(newTee(console, slog.NewJSONHandler(cfg.File, opts)))
}

// NewDiscard returns a logger that drops every record. Writers use it when
// no logger is injected.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest returns a trace level logger that writes through t.Log, so tool
// output and burn steps show up next to a failing test.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{Level: LevelTrace, Output: &testWriter{t: t}})
}
