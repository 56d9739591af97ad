// Package logging builds the zap logger used across wtm.
//
// Diagnostics go to stderr through a console encoder so they never mix
// with command output on stdout. An optional JSON file sink, rotated by
// lumberjack, always records at debug level.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds configuration for New.
type Config struct {
	Level      string    // Console level (debug, info, warn, error)
	Verbose    bool      // Forces the console level to debug
	FilePath   string    // Optional JSON log file
	MaxSizeMB  int       // Max size in MB before rotation
	MaxBackups int       // Max number of old log files to keep
	Console    io.Writer // Console destination, stderr when nil
}

// Logger wraps the zap logger together with the resources it owns.
type Logger struct {
	*zap.Logger
	file *lumberjack.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level := ParseLevel(cfg.Level)
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	consoleCfg.CallerKey = ""
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), level),
	}

	var fileWriter *lumberjack.Logger
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}

		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(fileWriter),
			zapcore.DebugLevel,
		))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...)).Named("wtm"),
		file:   fileWriter,
	}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close flushes buffered entries and closes the log file, if any.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel converts a level name to a zap level. Unknown names select
// warn, the default console level.
func ParseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zapcore.WarnLevel
	}
	return level
}
