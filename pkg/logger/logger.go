package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin structured wrapper over zerolog.
type Logger struct {
	zl     zerolog.Logger
	digest *Digest
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "json", Output: "stdout"}
	}
	lvl := cfg.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		out = f
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}
	zerolog.TimeFieldFormat = tf
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// NewWriter builds a JSON logger on w. Used by tests and the CLI.
func NewWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.addToContext(ctx)
	}
	return &Logger{zl: ctx.Logger(), digest: l.digest}
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(ev)
	}
	ev.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.emit(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
	if l.digest != nil {
		l.digest.Add("warn", msg, fields)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	if l.digest != nil {
		l.digest.Add("error", msg, fields)
	}
}

// AttachDigest routes warn and error entries to d. A previous digest is closed.
func (l *Logger) AttachDigest(d *Digest) {
	if l.digest != nil && l.digest != d {
		l.digest.Close()
	}
	l.digest = d
}

// DetachDigest flushes and removes the digest.
func (l *Logger) DetachDigest() {
	if l.digest != nil {
		l.digest.Close()
		l.digest = nil
	}
}

// Field is a typed structured log attribute.
type Field interface {
	AddTo(event *zerolog.Event)
	KeyValue() (string, any)
	addToContext(c zerolog.Context) zerolog.Context
}

type field struct {
	key   string
	value any
	kind  int
}

const (
	kindString = iota
	kindInt
	kindInt64
	kindFloat
	kindBool
	kindErr
	kindAny
)

func (f field) AddTo(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.key, f.value.(string))
	case kindInt:
		e.Int(f.key, f.value.(int))
	case kindInt64:
		e.Int64(f.key, f.value.(int64))
	case kindFloat:
		e.Float64(f.key, f.value.(float64))
	case kindBool:
		e.Bool(f.key, f.value.(bool))
	case kindErr:
		if err, _ := f.value.(error); err != nil {
			e.Err(err)
		}
	default:
		e.Interface(f.key, f.value)
	}
}

func (f field) addToContext(c zerolog.Context) zerolog.Context {
	switch f.kind {
	case kindString:
		return c.Str(f.key, f.value.(string))
	case kindInt:
		return c.Int(f.key, f.value.(int))
	case kindInt64:
		return c.Int64(f.key, f.value.(int64))
	case kindFloat:
		return c.Float64(f.key, f.value.(float64))
	case kindBool:
		return c.Bool(f.key, f.value.(bool))
	case kindErr:
		if err, _ := f.value.(error); err != nil {
			return c.Err(err)
		}
		return c
	default:
		return c.Interface(f.key, f.value)
	}
}

func (f field) KeyValue() (string, any) {
	if f.kind == kindErr {
		if err, _ := f.value.(error); err != nil {
			return f.key, err.Error()
		}
		return f.key, nil
	}
	return f.key, f.value
}

// --- Field constructors ---

func String(key, value string) Field { return field{key, value, kindString} }

func Int(key string, value int) Field { return field{key, value, kindInt} }

func Int64(key string, value int64) Field { return field{key, value, kindInt64} }

func Float64(key string, value float64) Field { return field{key, value, kindFloat} }

func Bool(key string, value bool) Field { return field{key, value, kindBool} }

func Error(err error) Field { return field{"error", err, kindErr} }

func Any(key string, value any) Field { return field{key, value, kindAny} }

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return field{key, value.Milliseconds(), kindInt64}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ","))
}
