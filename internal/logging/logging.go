package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the narrow structured-logging surface the rest of the code
// depends on. Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
	Fatal(msg string, kv ...any)
}

type zapLogger struct{ s *zap.SugaredLogger }

// level is process-wide so the gorm logger can follow runtime level changes.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// New creates a logger; honors env vars LOG_LEVEL (debug|info|error|fatal),
// LOG_JSON (true|false).
func New(env string) Logger {
	SetLevel(os.Getenv("LOG_LEVEL"))
	enc := encoderFor(os.Getenv("LOG_JSON") != "false")
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)
	return &zapLogger{s: zap.New(core).Sugar()}
}

func encoderFor(json bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if json {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// SetLevel updates the global log level. Unknown values fall back to info.
func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// GetLevel reports the current global level as a string.
func GetLevel() string {
	switch level.Level() {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.FatalLevel:
		return "fatal"
	default:
		return "info"
	}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l *zapLogger) Fatal(msg string, kv ...any) { l.s.Fatalw(msg, kv...) }
