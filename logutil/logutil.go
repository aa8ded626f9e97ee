// logutil.go - slog-Logger mit TRACE-Level
//
// Dieses Modul enthaelt:
// - LevelTrace: Log-Level unterhalb von DEBUG
// - NewLogger: Text-Handler mit kurzen Quelldateinamen
// - Trace/TraceContext: Ausgabe auf TRACE-Level ueber den Default-Logger
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace liegt unterhalb von slog.LevelDebug (GANREC_DEBUG=2)
const LevelTrace slog.Level = -8

// NewLogger erstellt einen Text-Logger fuer w ab level
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

type skipKey struct{}

// Trace schreibt msg auf TRACE-Level in den Default-Logger
func Trace(msg string, args ...any) {
	TraceContext(context.WithValue(context.TODO(), skipKey{}, 1), msg, args...)
}

// TraceContext ist Trace mit Kontext
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger := slog.Default()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}

	skip, _ := ctx.Value(skipKey{}).(int)
	var pcs [1]uintptr
	runtime.Callers(2+skip, pcs[:])

	record := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	record.Add(args...)
	logger.Handler().Handle(ctx, record) //nolint:errcheck
}
