package logging

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

// goerrValues expands goerr context values into log attributes instead of
// printing the bare error string.
func goerrValues(_ []string, attr slog.Attr) *clog.HandleAttr {
	goErr, ok := attr.Value.Any().(*goerr.Error)
	if !ok {
		return nil
	}
	var attrs []any
	for k, v := range goErr.Values() {
		attrs = append(attrs, slog.Any(k, v))
	}
	attrs = append(attrs, slog.Any("cause", goErr.Error()))
	newAttr := slog.Group(attr.Key, attrs...)
	return &clog.HandleAttr{NewAttr: &newAttr}
}

// New builds the process logger. Console format colors levels for terminal
// use; JSON format suits log shippers.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithAttrHook(goerrValues),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgCyan),
					slog.LevelInfo:  color.New(color.FgGreen),
					slog.LevelWarn:  color.New(color.FgYellow),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
			}),
		)
	}
	return slog.New(handler)
}
