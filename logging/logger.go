// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer ContentMeshLogger with contextual
// helpers (run, component) and domain specific logging helpers for model
// calls, workflow nodes and runs.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface for ContentMesh.
// Args are slog-style alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LLMCallLogger records text-generation calls.
type LLMCallLogger interface {
	LogLLMCall(call LLMCall)
}

// LLMCall describes one finished text-generation call.
type LLMCall struct {
	Provider    string
	Model       string
	MaxTokens   int
	ResponseLen int
	Duration    time.Duration
	Err         error
}

func (c LLMCall) args() []any {
	args := []any{"provider", c.Provider, "model", c.Model, "max_tokens", c.MaxTokens, "duration", c.Duration}
	if c.Err != nil {
		return append(args, "error", c.Err.Error())
	}
	return append(args, "response_len", c.ResponseLen)
}

// AsLLMCallLogger returns l itself when it records generation calls,
// otherwise an adapter logging failures at warn and successes at debug.
func AsLLMCallLogger(l Logger) LLMCallLogger {
	if cl, ok := l.(LLMCallLogger); ok {
		return cl
	}
	return llmCallAdapter{l}
}

type llmCallAdapter struct{ Logger }

func (a llmCallAdapter) LogLLMCall(call LLMCall) {
	if call.Err != nil {
		a.Warn("LLM call failed", call.args()...)
		return
	}
	a.Debug("LLM call completed", call.args()...)
}

// StackLogger logs errors together with a stack trace.
type StackLogger interface {
	ErrorWithStack(err error, msg string, args ...any)
}

// ErrorWithStack logs err through l, with a stack trace when l supports it.
func ErrorWithStack(l Logger, err error, msg string, args ...any) {
	if sl, ok := l.(StackLogger); ok {
		sl.ErrorWithStack(err, msg, args...)
		return
	}
	l.Error(msg, append(args, "error", err.Error())...)
}

// ContentMeshLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type ContentMeshLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	runID     string
}

// LoggerConfig configures construction of a ContentMeshLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	RunID       string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, CustomAttrs: map[string]any{}}
}

// NewLogger builds a ContentMeshLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *ContentMeshLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	ctx := map[string]any{}
	for k, v := range cfg.CustomAttrs {
		ctx[k] = v
	}
	return &ContentMeshLogger{logger: slog.New(handler), level: cfg.Level, context: ctx, component: cfg.Component, runID: cfg.RunID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *ContentMeshLogger) clone() *ContentMeshLogger {
	nl := *l
	nl.context = map[string]any{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *ContentMeshLogger) WithContext(key string, value any) *ContentMeshLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (agent, planner, engine, etc.).
func (l *ContentMeshLogger) WithComponent(c string) *ContentMeshLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRun attaches a workflow run identifier.
func (l *ContentMeshLogger) WithRun(runID string) *ContentMeshLogger {
	nl := l.clone()
	nl.runID = runID
	return nl
}

func (l *ContentMeshLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.runID != "" {
		attrs = append(attrs, slog.String("run_id", l.runID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *ContentMeshLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.buildAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *ContentMeshLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *ContentMeshLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *ContentMeshLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *ContentMeshLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// ErrorWithStack logs an error plus a runtime stack snapshot.
func (l *ContentMeshLogger) ErrorWithStack(err error, msg string, args ...any) {
	if l.level > LogLevelError {
		return
	}
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	args = append(args, "error", err.Error(), "error_type", fmt.Sprintf("%T", err), "stack_trace", string(stack[:n]))
	l.log(slog.LevelError, true, msg, args...)
}

// LogLLMCall records generation latency, response size and success.
func (l *ContentMeshLogger) LogLLMCall(call LLMCall) {
	args := append(call.args(), "success", call.Err == nil)
	if call.Err != nil {
		l.log(slog.LevelWarn, l.level <= LogLevelWarn, "LLM call failed", args...)
		return
	}
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, "LLM call completed", args...)
}

// LogNodeExecution records one workflow step: the stage, the agents it
// invoked and how long it took.
func (l *ContentMeshLogger) LogNodeExecution(stage string, agents []string, dur time.Duration) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, "Node executed",
		"stage", stage, "agents", agents, "duration", dur)
}

// LogRun records aggregate workflow run metrics.
func (l *ContentMeshLogger) LogRun(steps, iterations int, dur time.Duration, err error) {
	args := []any{"step_count", steps, "iterations", iterations, "duration", dur, "success", err == nil}
	if err != nil {
		args = append(args, "error", err.Error())
		l.log(slog.LevelError, l.level <= LogLevelError, "Workflow run failed", args...)
		return
	}
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, "Workflow run completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new ContentMeshLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *ContentMeshLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
