package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by LOG_FORMAT.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// Options describe the process the logger belongs to. Service, Version and
// Environment are attached to every record.
type Options struct {
	Service     string
	Version     string
	Environment string
	Level       string
	Format      string
	Output      io.Writer
}

var levelColors = []struct {
	plain, colored []byte
}{
	{[]byte("level=DEBUG"), []byte("\033[36mlevel=DEBUG\033[0m")},
	{[]byte("level=INFO"), []byte("\033[32mlevel=INFO\033[0m")},
	{[]byte("level=WARN"), []byte("\033[33mlevel=WARN\033[0m")},
	{[]byte("level=ERROR"), []byte("\033[31mlevel=ERROR\033[0m")},
}

// levelColorWriter paints the level field of text records for a terminal.
type levelColorWriter struct {
	out io.Writer
}

func (w levelColorWriter) Write(p []byte) (int, error) {
	line := p
	for _, c := range levelColors {
		if bytes.Contains(line, c.plain) {
			line = bytes.Replace(line, c.plain, c.colored, 1)
			break
		}
	}
	if _, err := w.out.Write(line); err != nil {
		return 0, err
	}
	return len(p), nil
}

// New builds the service logger. Local environments get text records,
// colored when written to a terminal; everything else gets JSON for the
// log collector.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: true,
	}

	var handler slog.Handler
	if resolveFormat(opts.Format, opts.Environment) == FormatText {
		if isTerminal(out) {
			out = levelColorWriter{out: out}
		}
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(handler).With(
		"service", opts.Service,
		"version", opts.Version,
		"environment", opts.Environment,
	)
}

func resolveFormat(format, environment string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return FormatJSON
	case FormatText:
		return FormatText
	}
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		return FormatText
	}
	return FormatJSON
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
