package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level = zapcore.Level

const (
	DEBUG = zapcore.DebugLevel
	INFO  = zapcore.InfoLevel
	WARN  = zapcore.WarnLevel
	ERROR = zapcore.ErrorLevel
)

// ParseLevel parses a string into a Level, falling back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger is a levelled, printf-style logger on top of zap.
type Logger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	prefix string
}

type options struct {
	out      io.Writer
	level    Level
	prefix   string
	colorize bool
}

// Option configures a Logger.
type Option func(*options)

// WithOutput sets the output destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithPrefix sets the logger name shown in brackets.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithColors enables or disables colorized levels.
func WithColors(enabled bool) Option {
	return func(o *options) {
		o.colorize = enabled
	}
}

// New creates a new Logger with the given options.
func New(opts ...Option) *Logger {
	o := options{out: os.Stdout, level: INFO, colorize: true}
	for _, opt := range opts {
		opt(&o)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}
	if o.colorize {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(o.out),
		zap.NewAtomicLevelAt(o.level),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return build(base, o.prefix)
}

func build(base *zap.Logger, prefix string) *Logger {
	named := base
	if prefix != "" {
		named = base.Named(prefix)
	}
	return &Logger{base: base, sugar: named.Sugar(), prefix: prefix}
}

var defaultLogger = New()

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return build(l.base.With(zap.Any(key, value)), l.prefix)
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return build(l.base.With(zf...), l.prefix)
}

// WithPrefix returns a new logger with the given prefix, replacing any previous one.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return build(l.base, prefix)
}

// Prefix returns the logger's current prefix.
func (l *Logger) Prefix() string {
	return l.prefix
}

func (l *Logger) Debug(msg string, args ...any) {
	if len(args) == 0 {
		l.sugar.Debug(msg)
		return
	}
	l.sugar.Debugf(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	if len(args) == 0 {
		l.sugar.Info(msg)
		return
	}
	l.sugar.Infof(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	if len(args) == 0 {
		l.sugar.Warn(msg)
		return
	}
	l.sugar.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if len(args) == 0 {
		l.sugar.Error(msg)
		return
	}
	l.sugar.Errorf(msg, args...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

type ctxKey struct{}

// FromContext returns the logger from the context, or the default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// NewContext returns a new context with the given logger.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}
