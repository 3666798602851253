package framework

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the diagnostic logger for one run. Diagnostics share the
// error stream with the console but stay silent below warn unless --verbose
// is set; --quiet raises the floor to error.
func NewLogger(w io.Writer, verbose, quiet bool) *zap.Logger {
	if w == nil {
		return zap.NewNop()
	}
	level := zapcore.WarnLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.ErrorLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core).Named("cpm")
}
