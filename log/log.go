// Package log is the engine's single logging facade. Every package logs
// through L() rather than reaching for the stdlib log package or
// fmt.Println, mirroring the teacher's logutil.BgLogger() call sites.
package log

import (
	"sync"
	"sync/atomic"

	plog "github.com/pingcap/log"
	"go.uber.org/zap"
)

var (
	global atomic.Value // holds *zap.Logger
	once   sync.Once
)

// Config is the logging setup Init accepts: a file path (rotated with
// lumberjack) and a level. An empty Path logs to stderr only.
type Config struct {
	Path       string
	Level      string // "debug", "info", "warn", "error"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func init() {
	once.Do(func() {
		l, _, _ := plog.InitLogger(&plog.Config{Level: "info"})
		global.Store(l)
	})
}

// Init (re)configures the global logger. The engine does not call it;
// until an embedder does, L() returns the info-level logger set up at
// package init. Safe to call again in tests that want a fresh sink.
func Init(cfg Config) error {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	plogCfg := &plog.Config{Level: level}
	if cfg.Path != "" {
		plogCfg.File = plog.FileLogConfig{
			Filename:   cfg.Path,
			MaxSize:    nonZero(cfg.MaxSizeMB, 128),
			MaxBackups: nonZero(cfg.MaxBackups, 4),
			MaxDays:    nonZero(cfg.MaxAgeDays, 7),
		}
	}
	// InitLogger wires a lumberjack-backed rotating sink internally via
	// plog.FileLogConfig when cfg.Path is set; props carries the
	// resulting core/level for callers that want to build on it, which
	// this package doesn't need to.
	l, _, err := plog.InitLogger(plogCfg)
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// L returns the current global logger.
func L() *zap.Logger {
	return global.Load().(*zap.Logger)
}

func nonZero(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Sync flushes any buffered log entries; call on engine shutdown.
func Sync() error {
	return L().Sync()
}
