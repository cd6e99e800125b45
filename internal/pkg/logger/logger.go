package logger

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doeshing/shellgate/internal/ports"
)

// ZapLogger adapts a zap.Logger to the ports.Logger field-map signature.
type ZapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// Options configures New.
type Options struct {
	Level   string
	Format  string
	Verbose bool
}

// New builds a logger writing to stderr. Format "console" uses the development
// encoder; anything else emits JSON. Verbose forces debug level.
func New(opts Options) (*ZapLogger, error) {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))
	if opts.Verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(opts.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{base: base.Named("shellgate"), level: level}, nil
}

// Wrap adapts an existing zap logger, mainly for tests using zaptest/observer.
func Wrap(base *zap.Logger) *ZapLogger {
	return &ZapLogger{base: base, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// Nop discards everything.
func Nop() *ZapLogger {
	return &ZapLogger{base: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// SetLevel changes the level at runtime.
func (l *ZapLogger) SetLevel(level string) {
	l.level.SetLevel(parseLevel(level))
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug(msg, toFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info(msg, toFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn(msg, toFields(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	zf := toFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.base.Error(msg, zf...)
}

// toFields sorts keys so output is stable across runs.
func toFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func parseLevel(value string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(value)))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

var _ ports.Logger = (*ZapLogger)(nil)
