// Package logsink is the durable destination for action-log events. It keeps
// two zap cores: a human-readable console core and an NDJSON file core behind
// size-based rotation. Every component that records something about the
// model/browser seam emits entity.LogEvent values through a Sink.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Gytisw/agentlog/internal/entity"
)

// Emitter accepts structured action-log events. Satisfied by *Sink; small
// enough for tests to fake.
type Emitter interface {
	Emit(ev entity.LogEvent)
}

// FileConfig controls the NDJSON file core. Rotation is handled by lumberjack.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// Config controls the sink. With Console false and an empty file path the
// sink falls back to console so events are never silently dropped.
type Config struct {
	Console bool       `yaml:"console"`
	Level   string     `yaml:"level"` // debug, info, warn, error
	File    FileConfig `yaml:"file"`
}

// Sink writes LogEvents through zap.
type Sink struct {
	log   *zap.Logger
	level zapcore.Level
}

// New builds a Sink from config. The file core is created lazily by
// lumberjack on first write; only the directory is prepared here.
func New(cfg Config) (*Sink, error) {
	level := parseLevel(cfg.Level)

	var cores []zapcore.Core

	if cfg.File.Path != "" {
		if dir := filepath.Dir(cfg.File.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("logsink: create log directory: %w", err)
			}
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "ts"
		enc.MessageKey = "msg"
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(enc),
			zapcore.AddSync(rotator),
			level,
		))
	}

	if cfg.Console || len(cores) == 0 {
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(enc),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	return &Sink{
		log:   zap.New(zapcore.NewTee(cores...)),
		level: level,
	}, nil
}

// Emit writes one event under the event's own timestamp, so the ts column
// reflects when the action happened, not when it reached the sink. Safe for
// concurrent use; events from a single goroutine land in Emit order.
func (s *Sink) Emit(ev entity.LogEvent) {
	fields := make([]zap.Field, 0, len(ev.Fields)+1)
	fields = append(fields, zap.String("source", string(ev.Source)))

	// Deterministic field order keeps the console stream and tests stable.
	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, ev.Fields[k]))
	}

	when := ev.Time
	if when.IsZero() {
		when = time.Now()
	}

	entry := zapcore.Entry{
		Time:    when,
		Level:   zapLevel(ev.Level),
		Message: ev.Message,
	}
	if ce := s.log.Core().Check(entry, nil); ce != nil {
		ce.Write(fields...)
	}
}

func zapLevel(level entity.Level) zapcore.Level {
	switch level {
	case entity.LevelDebug:
		return zapcore.DebugLevel
	case entity.LevelWarn:
		return zapcore.WarnLevel
	case entity.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Verbose reports whether the sink records debug-level events. Callers use
// it to decide whether to attach expensive or sensitive payloads.
func (s *Sink) Verbose() bool {
	return s.level <= zapcore.DebugLevel
}

// Logger exposes the underlying sugared logger for ambient (non-event)
// application logging.
func (s *Sink) Logger() *zap.SugaredLogger {
	return s.log.Sugar()
}

// Sync flushes buffered entries. Stderr sync errors are expected on some
// platforms and not worth surfacing.
func (s *Sink) Sync() {
	_ = s.log.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
