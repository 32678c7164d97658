package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defaults.
const (
	DefaultLogLevel   = "info"
	DefaultLogMaxSize = 100
	DefaultLogMaxAge  = 7
)

// LoggerConfig describes application logger. Logs are written to stderr
// and, if File is set, to a rotated file.
type LoggerConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	// MaxSize is a file size in megabytes which triggers rotation.
	MaxSize int `yaml:"max_size"`
	// MaxAge is a number of days to keep rotated files.
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

// ParseLevel returns configured zap level.
func (l LoggerConfig) ParseLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return lvl, errors.Wrapf(err, "invalid log level")
	}

	return lvl, nil
}

// Build returns a logger described by l.
func (l LoggerConfig) Build() (*zap.Logger, error) {
	lvl, err := l.ParseLevel()
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl),
	}

	if l.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   l.File,
				MaxSize:    l.MaxSize,
				MaxAge:     l.MaxAge,
				MaxBackups: l.MaxBackups,
				Compress:   l.Compress,
			}),
			lvl))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
