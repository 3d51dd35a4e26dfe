// Package logging provides a minimal logging interface and adapters for ContentMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, planner and agents use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - ContentMeshLogger on log/slog with run/component context and domain helpers
//   - LLMCallLogger and StackLogger, optional capabilities with fallbacks for
//     plain Loggers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(func(o *engine.Options) { o.Logger = logger })
package logging
