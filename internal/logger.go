package internal

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is a [slog.Logger] tagging every record with the component it belongs to.
type Logger struct {
	*slog.Logger

	kind string
	name string
}

// NewLogger returns a [Logger] writing colored records to stderr when it is a terminal.
func NewLogger(kind, name string) *Logger {
	var handler slog.Handler

	if runtime.GOOS == "windows" {
		w := colorable.NewColorableStderr()
		handler = tint.NewHandler(w, nil)
	} else {
		w := os.Stderr
		handler = tint.NewHandler(w, &tint.Options{
			NoColor: !isatty.IsTerminal(w.Fd()),
		})
	}

	return newLogger(handler, kind, name)
}

// NewWriterLogger returns a [Logger] writing uncolored records to w.
func NewWriterLogger(w io.Writer, level slog.Leveler, kind, name string) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: true,
	})

	return newLogger(handler, kind, name)
}

// WrapLogger returns a [Logger] writing through l.
func WrapLogger(l *slog.Logger, kind, name string) *Logger {
	return newLogger(l.Handler(), kind, name)
}

func newLogger(handler slog.Handler, kind, name string) *Logger {
	return &Logger{
		Logger: slog.New(handler).With(slog.Group("component", slog.String("kind", kind), slog.String("name", name))),

		kind: kind,
		name: name,
	}
}

// Kind returns the component kind.
func (l *Logger) Kind() string {
	return l.kind
}

// Name returns the component name.
func (l *Logger) Name() string {
	return l.name
}

// ErrAttr returns the attribute used to log err.
func ErrAttr(err error) slog.Attr {
	return tint.Err(err)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	l.Logger.Error(msg, append([]any{ErrAttr(err)}, args...)...)
}
