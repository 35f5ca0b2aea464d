// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds a console logger at the given level ("debug", "info", ...),
// installs it as the zap global and returns it. Unknown levels fall back to info.
func Init(level string) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zapcore.InfoLevel)
	}

	loggerCfg := &zap.Config{
		Level:    lvl,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "severity",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := loggerCfg.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	return logger
}

// CronLogger adapts zap onto the robfig/cron Logger interface.
type CronLogger struct{ S *zap.SugaredLogger }

func (l CronLogger) Info(msg string, keysAndValues ...any) { l.S.Debugw(msg, keysAndValues...) }
func (l CronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.S.Errorw(msg, append(keysAndValues, "err", err)...)
}

// GooseLogger adapts zap onto the goose Logger interface.
type GooseLogger struct{ S *zap.SugaredLogger }

func (l GooseLogger) Printf(format string, v ...any) { l.S.Infof(format, v...) }
func (l GooseLogger) Fatalf(format string, v ...any) { l.S.Fatalf(format, v...) }
