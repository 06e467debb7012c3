// Package log builds the daemon's slog.Logger and the raw-report tap.
//
// Without a log file, console output is split: records below Error go to
// stdout and Error and above go to stderr, so a service wrapper can collect
// the two streams separately. With a log file, records go to the file and
// are mirrored on stderr.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below Debug for per-report noise such as decode dumps.
const LevelTrace slog.Level = -8

// ParseLevel maps a config string onto a slog level. The empty string and
// anything unrecognized mean Info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleSplit routes records below Error to one handler and Error and above
// to another.
type consoleSplit struct {
	out slog.Handler
	err slog.Handler
}

func (s consoleSplit) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelError {
		return s.err
	}
	return s.out
}

func (s consoleSplit) Enabled(ctx context.Context, level slog.Level) bool {
	return s.pick(level).Enabled(ctx, level)
}

func (s consoleSplit) Handle(ctx context.Context, r slog.Record) error {
	return s.pick(r.Level).Handle(ctx, r)
}

func (s consoleSplit) WithAttrs(attrs []slog.Attr) slog.Handler {
	return consoleSplit{out: s.out.WithAttrs(attrs), err: s.err.WithAttrs(attrs)}
}

func (s consoleSplit) WithGroup(name string) slog.Handler {
	return consoleSplit{out: s.out.WithGroup(name), err: s.err.WithGroup(name)}
}

// tee duplicates each record to both handlers. Write failures on one side do
// not stop the other.
type tee struct {
	a slog.Handler
	b slog.Handler
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return t.a.Enabled(ctx, level) || t.b.Enabled(ctx, level)
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range []slog.Handler{t.a, t.b} {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tee{a: t.a.WithAttrs(attrs), b: t.b.WithAttrs(attrs)}
}

func (t tee) WithGroup(name string) slog.Handler {
	return tee{a: t.a.WithGroup(name), b: t.b.WithGroup(name)}
}

// SetupLogger builds the process logger for the given level name and optional
// log file path. The returned closers own the opened file, if any.
func SetupLogger(logLevel, logFile string) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(logLevel)

	if logFile == "" {
		h := consoleSplit{
			out: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
			err: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
		}
		return slog.New(h), nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	h := tee{
		a: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		b: slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}),
	}
	return slog.New(h), []io.Closer{f}, nil
}
