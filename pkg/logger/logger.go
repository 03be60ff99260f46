package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelDebug
	LevelTrace
)

type Logger struct {
	sugar      *zap.SugaredLogger
	out        io.Writer
	name       string
	timestamps bool
	level      LogLevel
	isVerbose  bool
}

type Option func(*Logger)

func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

// WithPrefix names the logger. Brackets and trailing spaces are dropped,
// so "[flashsheet] " and "flashsheet" are equivalent.
func WithPrefix(prefix string) Option {
	return func(l *Logger) {
		l.name = strings.Trim(strings.TrimSpace(prefix), "[]")
	}
}

func WithTimestamps(enabled bool) Option {
	return func(l *Logger) {
		l.timestamps = enabled
	}
}

func New(options ...Option) *Logger {
	l := &Logger{
		out:        os.Stdout,
		timestamps: true,
		level:      LevelInfo,
		isVerbose:  false,
	}

	for _, opt := range options {
		opt(l)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if !l.timestamps {
		encCfg.TimeKey = ""
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(l.out),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	zl := zap.New(core)
	if l.name != "" {
		zl = zl.Named(l.name)
	}
	l.sugar = zl.Sugar()
	return l
}

func (l *Logger) SetVerbose(verbose bool) {
	l.isVerbose = verbose
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) IsVerbose() bool {
	return l.isVerbose
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.isVerbose || l.level >= LevelDebug {
		l.sugar.Debugf(format, args...)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LevelTrace {
		l.sugar.Debugf("TRACE: "+format, args...)
	}
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// Sync flushes buffered entries; call it before the process exits.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
