package zaplog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bnema/eligibility-cli/internal/ports"
)

type Options struct {
	// Level is one of debug, info, warn or error. Empty means warn, so the
	// CLI stays quiet unless asked.
	Level       string
	Development bool
}

// Logger adapts a sugared zap logger to ports.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

var _ ports.Logger = (*Logger)(nil)

func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	atomic := zap.NewAtomicLevelAt(level)
	cfg.Level = atomic
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{sugar: base.Sugar(), level: atomic}, nil
}

// NewWithCore wraps an existing core. The level still gates entries before
// they reach the core.
func NewWithCore(core zapcore.Core, level zapcore.Level) *Logger {
	atomic := zap.NewAtomicLevelAt(level)
	gated, err := zapcore.NewIncreaseLevelCore(core, atomic)
	if err != nil {
		gated = core
	}
	return &Logger{sugar: zap.New(gated).Sugar(), level: atomic}
}

func ParseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

func (l *Logger) SetLevel(raw string) error {
	level, err := ParseLevel(raw)
	if err != nil {
		return err
	}
	l.level.SetLevel(level)
	return nil
}

func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
