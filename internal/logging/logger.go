// Package logging provides categorized file-based logging for applypilot.
// Logs are written to <workspace>/.applypilot/logs/ with one file per
// category. When debug mode is off only warn+ is recorded.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup and config
	CategoryBrowser  Category = "browser"  // surface lifecycle, navigation
	CategoryInspect  Category = "inspect"  // field detection and classification
	CategorySession  Category = "session"  // state machine transitions
	CategoryResolver Category = "resolver" // AI message/answer generation
	CategorySubmit   Category = "submit"   // fill and submit automation
	CategorySearch   Category = "search"   // job search scraping
	CategoryAudit    Category = "audit"    // terminal record persistence
)

var (
	mu        sync.RWMutex
	loggers   = map[Category]*zap.SugaredLogger{}
	logsDir   string
	debugMode bool
)

// Initialize sets the log directory under the workspace and the debug gate.
// Safe to call once at startup; loggers created before Initialize write to
// stderr at warn level only.
func Initialize(workspace string, debug bool) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	dir := filepath.Join(workspace, ".applypilot", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	logsDir = dir
	debugMode = debug
	loggers = map[Category]*zap.SugaredLogger{}
	return nil
}

// Get returns the logger for a category, creating it on first use.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	loggers[cat] = build(cat)
	return loggers[cat]
}

func build(cat Category) *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if debugMode {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	sink := zapcore.AddSync(os.Stderr)
	if logsDir != "" {
		f, err := os.OpenFile(
			filepath.Join(logsDir, string(cat)+".log"),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644,
		)
		if err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(enc, sink, level)
	return zap.New(core).Named(string(cat)).Sugar()
}

// Sync flushes every category logger. Called once at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	for _, l := range loggers {
		_ = l.Sync()
	}
}

// Convenience helpers mirroring the call sites' categories.

func BootInfo(format string, args ...any)  { Get(CategoryBoot).Infof(format, args...) }
func BootWarn(format string, args ...any)  { Get(CategoryBoot).Warnf(format, args...) }
func BootError(format string, args ...any) { Get(CategoryBoot).Errorf(format, args...) }

func BrowserDebug(format string, args ...any) { Get(CategoryBrowser).Debugf(format, args...) }
func BrowserWarn(format string, args ...any)  { Get(CategoryBrowser).Warnf(format, args...) }

func InspectDebug(format string, args ...any) { Get(CategoryInspect).Debugf(format, args...) }

func SessionInfo(format string, args ...any) { Get(CategorySession).Infof(format, args...) }
func SessionWarn(format string, args ...any) { Get(CategorySession).Warnf(format, args...) }

func ResolverDebug(format string, args ...any) { Get(CategoryResolver).Debugf(format, args...) }
func ResolverWarn(format string, args ...any)  { Get(CategoryResolver).Warnf(format, args...) }

func SubmitDebug(format string, args ...any) { Get(CategorySubmit).Debugf(format, args...) }
func SubmitWarn(format string, args ...any)  { Get(CategorySubmit).Warnf(format, args...) }

func SearchDebug(format string, args ...any) { Get(CategorySearch).Debugf(format, args...) }

func AuditInfo(format string, args ...any) { Get(CategoryAudit).Infof(format, args...) }
func AuditWarn(format string, args ...any) { Get(CategoryAudit).Warnf(format, args...) }
