package auth

import (
	"go.uber.org/zap"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger to the Logger interface.
// A nil logger resolves to the process wide zap.L().
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.L()
	}
	return zapLogger{sugar: l.Named("auth").Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) {
	z.sugar.Debugw(msg, args...)
}

func (z zapLogger) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

func (z zapLogger) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z zapLogger) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

// defLogger resolves the global zap logger at call time so commands that
// install their own logger after package init are honored.
type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) {
	zap.L().Named("auth").Sugar().Debugw(msg, args...)
}

func (defLogger) Info(msg string, args ...any) {
	zap.L().Named("auth").Sugar().Infow(msg, args...)
}

func (defLogger) Warn(msg string, args ...any) {
	zap.L().Named("auth").Sugar().Warnw(msg, args...)
}

func (defLogger) Error(msg string, args ...any) {
	zap.L().Named("auth").Sugar().Errorw(msg, args...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
