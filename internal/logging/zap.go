package logging

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logging backend behaviour.
type Config struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"` // json | console
}

// ZapLogger adapts a zap.SugaredLogger to Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

// New builds a zap-backed Logger from cfg.
func New(cfg Config) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errors.Newf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build zap logger")
	}
	return NewZapLogger(l), nil
}

func toKeysAndValues(fields []Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (z *ZapLogger) Debug(msg string, fields ...Field) {
	z.sugar.Debugw(msg, toKeysAndValues(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Field) {
	z.sugar.Infow(msg, toKeysAndValues(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Field) {
	z.sugar.Warnw(msg, toKeysAndValues(fields)...)
}

func (z *ZapLogger) Error(msg string, fields ...Field) {
	z.sugar.Errorw(msg, toKeysAndValues(fields)...)
}

func (z *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{sugar: z.sugar.With(toKeysAndValues(fields)...)}
}

// Sync flushes buffered entries. Errors from syncing stdout/stderr are
// ignored, they are expected on most terminals.
func (z *ZapLogger) Sync() {
	_ = z.sugar.Sync()
}
