// Package logging provides the leveled key=value logger used by the
// interpreter and the call tree builder.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/mattn/go-isatty"
)

// Level represents the severity level for logs.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown names map to LevelWarn.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	default:
		return LevelWarn
	}
}

// Logger is the interface used by the engine for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a child logger augmented with the provided fields.
	With(fields map[string]any) Logger
}

// DefaultTimeLayout is the strftime layout used for timestamps.
const DefaultTimeLayout = "%Y-%m-%dT%H:%M:%S.%f%z"

// Config configures a logger created by New.
type Config struct {
	Level      Level
	Out        io.Writer // defaults to os.Stderr
	TimeLayout string    // strftime layout; empty disables timestamps
	Color      bool      // color level tags; forced off unless Out is a terminal
}

var levelColors = map[Level]string{
	LevelError: "\x1b[31m",
	LevelWarn:  "\x1b[33m",
	LevelInfo:  "\x1b[36m",
	LevelDebug: "\x1b[90m",
}

// textFormatter emits compact single-line text logs.
// Format: [LEVEL] ts msg key1=val1 key2=val2 ...
type textFormatter struct {
	timeLayout string
	color      bool
}

func (f *textFormatter) format(ts time.Time, level Level, msg string, fields map[string]any) []byte {
	var b strings.Builder
	b.Grow(128)

	if f.color {
		b.WriteString(levelColors[level])
	}
	b.WriteByte('[')
	b.WriteString(level.String())
	b.WriteByte(']')
	if f.color {
		b.WriteString("\x1b[0m")
	}
	b.WriteByte(' ')

	if f.timeLayout != "" {
		b.WriteString(timefmt.Format(ts.UTC(), f.timeLayout))
		b.WriteByte(' ')
	}

	b.WriteString(msg)

	// Sort field keys for deterministic output
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(safeSprint(fields[k]))
		}
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

func safeSprint(v any) string {
	switch t := v.(type) {
	case string:
		if strings.IndexFunc(t, func(r rune) bool { return r <= ' ' }) >= 0 {
			return fmt.Sprintf("%q", t)
		}
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// textLogger is a thread-safe logger implementation supporting With().
type textLogger struct {
	out        io.Writer
	level      Level
	formatter  *textFormatter
	baseFields map[string]any
	now        func() time.Time

	// mu serializes writes to out. It is shared with child loggers.
	mu *sync.Mutex
}

// New creates a text logger from cfg.
func New(cfg Config) Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	return &textLogger{
		out:   out,
		level: cfg.Level,
		formatter: &textFormatter{
			timeLayout: cfg.TimeLayout,
			color:      cfg.Color && isTerminal(out),
		},
		baseFields: make(map[string]any),
		now:        time.Now,
		mu:         &sync.Mutex{},
	}
}

// NewLogger creates a logger with the given level writing timestamped lines
// to w. If w is nil, os.Stderr is used.
func NewLogger(level Level, w io.Writer) Logger {
	return New(Config{Level: level, Out: w, TimeLayout: DefaultTimeLayout, Color: true})
}

func (l *textLogger) IsEnabled(level Level) bool {
	return level <= l.level
}

func (l *textLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	newFields := make(map[string]any, len(l.baseFields)+len(fields))
	for k, v := range l.baseFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &textLogger{
		out:        l.out,
		level:      l.level,
		formatter:  l.formatter,
		baseFields: newFields,
		now:        l.now,
		mu:         l.mu,
	}
}

func (l *textLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *textLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *textLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *textLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *textLogger) logf(level Level, format string, args ...any) {
	if !l.IsEnabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := l.formatter.format(l.now(), level, msg, l.baseFields)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)
}

// noopLogger discards all output.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any) {}
func (noopLogger) Infof(format string, args ...any)  {}
func (noopLogger) Warnf(format string, args ...any)  {}
func (noopLogger) Errorf(format string, args ...any) {}
func (l noopLogger) With(fields map[string]any) Logger {
	return l
}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return noopLogger{}
}

// FromLevel returns a stderr logger for a level name, or a no-op logger
// when the name is empty.
func FromLevel(name string) Logger {
	if name == "" {
		return Nop()
	}
	return NewLogger(ParseLevel(name), nil)
}
