package logging

import (
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// zapAdapter implements ports.Logger on top of zap
type zapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter wraps a zap logger behind the ports.Logger facade
func NewZapAdapter(logger *zap.Logger) ports.Logger {
	return &zapAdapter{logger: logger}
}

func (a *zapAdapter) Info(msg string, fields ...ports.Field) {
	a.logger.Info(msg, convert(fields)...)
}

func (a *zapAdapter) Error(msg string, fields ...ports.Field) {
	a.logger.Error(msg, convert(fields)...)
}

func (a *zapAdapter) Warn(msg string, fields ...ports.Field) {
	a.logger.Warn(msg, convert(fields)...)
}

func (a *zapAdapter) Debug(msg string, fields ...ports.Field) {
	a.logger.Debug(msg, convert(fields)...)
}

func convert(fields []ports.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			zapFields = append(zapFields, zap.Error(err))
			continue
		}
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
