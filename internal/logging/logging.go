// Package logging builds the application's zap logger.
package logging

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	// Mode is "dev" (console encoder) or "prod" (JSON encoder).
	Mode string `env:"MODE" envDefault:"dev"`

	// Level is a zap level name; empty means info.
	Level string `env:"LEVEL" envDefault:"info"`

	// File, when set, receives JSON logs through a rotating writer.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"FILE_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"FILE_MAX_BACKUPS" envDefault:"3"`

	// Console is where console output goes; nil means stderr so command
	// output on stdout stays clean.
	Console io.Writer `env:"-"`
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(cfg.Mode) {
	case "prod", "production":
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(console), level),
	}

	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// SampleLimit is the number of runes kept by Sample.
const SampleLimit = 200

// Sample truncates model output for log fields.
func Sample(text string) string {
	if utf8.RuneCountInString(text) <= SampleLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:SampleLimit]) + "…"
}
