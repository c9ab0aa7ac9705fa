// Package log is a thin leveled logger on top of log/slog. Modules tag
// each line with the harness component that produced it, so a single
// run can be filtered down to loader, dispatch or runner chatter.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
)

// Harness modules.
const (
	LoaderModule   = "loader"
	DispatchModule = "dispatch"
	CompareModule  = "compare"
	RunnerModule   = "runner"
)

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(discardHandler{}))
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a stderr text handler at the given level. Unknown
// level names fall back to info.
func InitLogger(logLevel string) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		level = LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	root.Store(slog.New(h))
}

func Root() *slog.Logger {
	return root.Load()
}

func Trace(module string, msg string, ctx ...any) {
	write(LevelTrace, module, msg, ctx...)
}

func Debug(module string, msg string, ctx ...any) {
	write(LevelDebug, module, msg, ctx...)
}

func Info(module string, msg string, ctx ...any) {
	write(LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...any) {
	write(LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...any) {
	write(LevelError, module, msg, ctx...)
}

func write(level slog.Level, module string, msg string, ctx ...any) {
	attrs := append([]any{"module", module}, ctx...)
	Root().Log(context.Background(), level, msg, attrs...)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
