package auth

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to Logger. Messages containing printf
// verbs are formatted, anything else treats args as key/value pairs.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l. A nil logger builds a production logger at level.
func NewZapLogger(l *zap.Logger, level string) *ZapLogger {
	if l == nil {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(parseZapLevel(level))
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		built, err := zcfg.Build(zap.AddCallerSkip(2))
		if err != nil {
			built = zap.NewNop()
		}
		l = built
	}
	return &ZapLogger{sugar: l.Named("auth").Sugar()}
}

func (z *ZapLogger) Debug(format string, args ...any) {
	if isPrintf(format) {
		z.sugar.Debugf(format, args...)
		return
	}
	z.sugar.Debugw(format, args...)
}

func (z *ZapLogger) Info(format string, args ...any) {
	if isPrintf(format) {
		z.sugar.Infof(format, args...)
		return
	}
	z.sugar.Infow(format, args...)
}

func (z *ZapLogger) Warn(format string, args ...any) {
	if isPrintf(format) {
		z.sugar.Warnf(format, args...)
		return
	}
	z.sugar.Warnw(format, args...)
}

func (z *ZapLogger) Error(format string, args ...any) {
	if isPrintf(format) {
		z.sugar.Errorf(format, args...)
		return
	}
	z.sugar.Errorw(format, args...)
}

// Zap returns the underlying logger
func (z *ZapLogger) Zap() *zap.Logger {
	return z.sugar.Desugar()
}

// Sync flushes buffered entries
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}

func isPrintf(format string) bool {
	return strings.Contains(format, "%")
}

func parseZapLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
