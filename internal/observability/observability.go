// Package observability provides the shared zap logger.
package observability

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("observability",
	fx.Provide(NewLogger),
)

func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("MIAPASS_DEBUG") != "" {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
