package cli

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/avoronov/goalkeeper/internal/config"
)

// logWriter returns a size-rotated file writer for client logs.
func logWriter(cfg config.Log) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}
