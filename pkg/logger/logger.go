// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
)

// New returns the process logger: JSON in prod, console in dev.
func New(env string) *zap.SugaredLogger {
	var z *zap.Logger
	if env == "prod" {
		z, _ = zap.NewProduction()
	} else {
		z, _ = zap.NewDevelopment()
	}
	return z.Sugar()
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
