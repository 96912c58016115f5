// Package logging builds the process logger: human-readable lines on the console
// and JSON lines in a rotated file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config logger settings.
type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives the human-readable stream; defaults to stderr.
	Console io.Writer
}

// New builds a logger writing to cfg.Console and, when cfg.File is set, to a rotated file.
// The returned close function flushes and releases the file.
func New(cfg Config) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncCfg := encCfg
	consoleEncCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	out := cfg.Console
	if out == nil {
		out = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncCfg), zapcore.Lock(zapcore.AddSync(out)), level),
	}

	var file *lumberjack.Logger
	if path := strings.TrimSpace(cfg.File); path != "" {
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closeFn, nil
}
