package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level is a logging severity, ordered so that comparisons mean
// "at least this severe."
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the logger's startup configuration, sourced from
// pkg/config.Config.Logging.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // "text" or "json"

	mu       sync.RWMutex
	slogger  *slog.Logger
	output   io.Writer = os.Stdout
	useColor bool      = true
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store("text")
	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	reconfigure()
}

// reconfigure rebuilds the slog handler from the current level, format,
// output, and color settings. It takes mu itself, so callers must not
// hold it.
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	levelVar := new(slog.LevelVar)
	levelVar.Set(toSlogLevel(Level(currentLevel.Load())))
	opts := &slog.HandlerOptions{Level: levelVar}

	format, _ := currentFormat.Load().(string)
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = NewColorTextHandler(output, opts, useColor)
	}
	slogger = slog.New(handler)
}

// Init applies cfg to the package-level logger. An empty field leaves
// that setting unchanged, so a zero Config is a no-op.
func Init(cfg Config) error {
	if cfg.Output != "" {
		mu.Lock()
		var newOutput io.Writer
		var newUseColor bool

		switch strings.ToLower(cfg.Output) {
		case "stdout":
			newOutput, newUseColor = os.Stdout, isTerminal(os.Stdout.Fd())
		case "stderr":
			newOutput, newUseColor = os.Stderr, isTerminal(os.Stderr.Fd())
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				mu.Unlock()
				return fmt.Errorf("open log file %q: %w", cfg.Output, err)
			}
			newOutput, newUseColor = f, false // files never get ANSI color codes
		}

		output, useColor = newOutput, newUseColor
		mu.Unlock()
		reconfigure()
	}

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
	return nil
}

// SetLevel sets the minimum severity that will be emitted. An
// unrecognized level is ignored, leaving the previous level in effect.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	default:
		return
	}
	reconfigure()
}

// SetFormat sets the output encoding ("text" or "json"). An unrecognized
// value is ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	currentFormat.Store(format)
	reconfigure()
}

func getLogger() *slog.Logger {
	mu.RLock()
	l := slogger
	mu.RUnlock()
	return l
}

// Debug logs at debug level. Usage: Debug("message", "key", value, ...).
func Debug(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelDebug {
		return
	}
	getLogger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelInfo {
		return
	}
	getLogger().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelWarn {
		return
	}
	getLogger().Warn(msg, args...)
}

// Error logs at error level. Errors are never filtered by level.
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}
