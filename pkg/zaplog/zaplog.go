// Package zaplog backs the shared logging interface with zap.
//
// Install it once at startup; components keep using the logging package:
//
//	zaplog.Install()
//	logger := logging.WithFields(logging.Fields{"component": "tile_renderer"})
//	logger.Debug("Rendering tile", logging.Fields{"cols": cols})
package zaplog

import (
	"context"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	sonarlog "github.com/RyanBlaney/sonido-sonar/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	rootOnce sync.Once
	root     *Logger
)

// Logger implements logging.Logger on top of a zap logger
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

var _ logging.Logger = (*Logger)(nil)

// New returns the process-wide console logger writing to stderr
func New() *Logger {
	rootOnce.Do(func() {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		)
		root = &Logger{z: zap.New(core), level: level}
	})
	return root
}

// NewWithCore wraps an arbitrary zap core, mostly useful for tests
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{z: zap.New(core), level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// Install makes the zap logger the global logger of both logging packages
// the module and its decoder depend on.
func Install() *Logger {
	l := New()
	logging.SetGlobalLogger(l)
	sonarlog.SetGlobalLogger(Sonar(l))
	return l
}

// ParseLevel maps a level name (debug, info, warn, error, fatal) to a Level
func ParseLevel(name string) (logging.Level, error) {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return logging.InfoLevel, err
	}
	return fromZap(l), nil
}

func toZap(l logging.Level) zapcore.Level {
	switch l {
	case logging.DebugLevel:
		return zapcore.DebugLevel
	case logging.WarnLevel:
		return zapcore.WarnLevel
	case logging.ErrorLevel:
		return zapcore.ErrorLevel
	case logging.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZap(l zapcore.Level) logging.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return logging.DebugLevel
	case l == zapcore.InfoLevel:
		return logging.InfoLevel
	case l == zapcore.WarnLevel:
		return logging.WarnLevel
	case l < zapcore.FatalLevel:
		return logging.ErrorLevel
	default:
		return logging.FatalLevel
	}
}

// Level reports the current minimum level
func (l *Logger) Level() logging.Level {
	return fromZap(l.level.Level())
}

func (l *Logger) Debug(msg string, fields ...logging.Fields) {
	l.z.Debug(msg, zapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...logging.Fields) {
	l.z.Info(msg, zapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...logging.Fields) {
	l.z.Warn(msg, zapFields(fields)...)
}

func (l *Logger) Error(err error, msg string, fields ...logging.Fields) {
	l.z.Error(msg, withError(err, fields)...)
}

func (l *Logger) Fatal(err error, msg string, fields ...logging.Fields) {
	l.z.Fatal(msg, withError(err, fields)...)
}

func (l *Logger) WithFields(fields logging.Fields) logging.Logger {
	return &Logger{z: l.z.With(zapFields([]logging.Fields{fields})...), level: l.level}
}

// WithContext picks up fields stored under the "logger_fields" context key
func (l *Logger) WithContext(ctx context.Context) logging.Logger {
	if fields, ok := ctx.Value("logger_fields").(logging.Fields); ok {
		return l.WithFields(fields)
	}
	return l
}

// SetLevel changes the level of this logger and every logger derived from it
func (l *Logger) SetLevel(lvl logging.Level) {
	l.level.SetLevel(toZap(lvl))
}

func withError(err error, fields []logging.Fields) []zap.Field {
	zf := zapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	return zf
}

// zapFields flattens field maps in key order so output is stable
func zapFields(fields []logging.Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	merged := make(logging.Fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	keys := slices.Sorted(maps.Keys(merged))

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

// sonarLogger forwards the decoder library's logging interface
type sonarLogger struct {
	l logging.Logger
}

// Sonar adapts l to the sonido-sonar logging interface
func Sonar(l logging.Logger) sonarlog.Logger {
	return &sonarLogger{l: l}
}

func sonarFields(fields []sonarlog.Fields) []logging.Fields {
	out := make([]logging.Fields, len(fields))
	for i, f := range fields {
		out[i] = logging.Fields(f)
	}
	return out
}

func (s *sonarLogger) Debug(msg string, fields ...sonarlog.Fields) {
	s.l.Debug(msg, sonarFields(fields)...)
}

func (s *sonarLogger) Info(msg string, fields ...sonarlog.Fields) {
	s.l.Info(msg, sonarFields(fields)...)
}

func (s *sonarLogger) Warn(msg string, fields ...sonarlog.Fields) {
	s.l.Warn(msg, sonarFields(fields)...)
}

func (s *sonarLogger) Error(err error, msg string, fields ...sonarlog.Fields) {
	s.l.Error(err, msg, sonarFields(fields)...)
}

func (s *sonarLogger) Fatal(err error, msg string, fields ...sonarlog.Fields) {
	s.l.Fatal(err, msg, sonarFields(fields)...)
}

func (s *sonarLogger) WithFields(fields sonarlog.Fields) sonarlog.Logger {
	return &sonarLogger{l: s.l.WithFields(logging.Fields(fields))}
}

func (s *sonarLogger) WithContext(ctx context.Context) sonarlog.Logger {
	return &sonarLogger{l: s.l.WithContext(ctx)}
}

func (s *sonarLogger) SetLevel(lvl sonarlog.Level) {
	s.l.SetLevel(logging.Level(lvl))
}
