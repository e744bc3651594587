package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/berrythewa/mediaclip/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the daemon log file inside the log directory
const LogFileName = "mediaclip.log"

// LoggerOptions carries the command line switches that affect logging
type LoggerOptions struct {
	Verbose bool // development console output at debug level
	Quiet   bool // warnings and errors only
	ToFile  bool // write to the log file instead of stderr
}

// NewLogger creates a new logger instance
func NewLogger(cfg *config.Config, opts LoggerOptions) (*zap.Logger, error) {
	if opts.Verbose {
		devCfg := zap.NewDevelopmentConfig()
		devCfg.OutputPaths = []string{"stderr"}
		return devCfg.Build()
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	if opts.Quiet && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	encoding := cfg.Log.Format
	if encoding != "console" {
		encoding = "json"
	}

	outputs := []string{"stderr"}
	if opts.ToFile && cfg.Log.EnableFileLogging && cfg.SystemPaths.LogDir != "" {
		if err := os.MkdirAll(cfg.SystemPaths.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = []string{filepath.Join(cfg.SystemPaths.LogDir, LogFileName)}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zcfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	return zcfg.Build()
}
