package kit

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. LOG_LEVEL selects the minimum level,
// LOG_MODE=dev switches to the console encoder for local runs.
func NewLogger(service string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if os.Getenv("LOG_MODE") == "dev" {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.InitialFields = map[string]any{"service": service}
	l, _ := cfg.Build()
	return l
}
