package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger es lo que usan servicios y adapters; los args son pares clave/valor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type zapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// New arma un logger zap. format: "json" (default) o "console".
func New(level, format string) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil || level == "" {
		if level != "" {
			return nil, fmt.Errorf("invalid log level: %s", level)
		}
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "text":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	base := zap.New(zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl), zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{base: base, sugar: base.Sugar()}, nil
}

// Nop descarta todo (tests).
func Nop() Logger {
	base := zap.NewNop()
	return &zapLogger{base: base, sugar: base.Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{base: l.base, sugar: l.sugar.With(args...)}
}

// Sync vacía buffers; llamar antes de salir. Acepta cualquier Logger.
func Sync(l Logger) {
	if z, ok := l.(*zapLogger); ok {
		_ = z.base.Sync()
	}
}
