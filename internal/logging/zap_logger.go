package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/interfaces"
)

// ZapLogger backs interfaces.Logger with a production go.uber.org/zap
// logger. It is the default logger wired by cmd/alertalinkd; StdoutLogger
// remains available for tests and early-boot code.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger builds a JSON-encoded, leveled zap logger. debug toggles the
// minimum level between Info and Debug.
func NewZapLogger(component string, debug bool) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      debug,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if component != "" {
		z = z.With(zap.String("component", component))
	}
	return &ZapLogger{z: z}, nil
}

func toZapFields(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...interfaces.Field) {
	l.z.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...interfaces.Field) {
	l.z.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...interfaces.Field) {
	l.z.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...interfaces.Field) {
	l.z.Error(msg, toZapFields(fields)...)
}

func (l *ZapLogger) With(fields ...interfaces.Field) interfaces.Logger {
	return &ZapLogger{z: l.z.With(toZapFields(fields)...)}
}

// Sync flushes any buffered log entries; call on shutdown.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}
