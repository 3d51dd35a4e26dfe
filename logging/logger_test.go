package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*ContentMeshLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestContentMeshLoggerKeyValues(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.WithComponent("engine").WithRun("run-1").Info("step", "stage", "planning", "n", 2)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "step", lines[0]["msg"])
	assert.Equal(t, "engine", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "planning", lines[0]["stage"])
	assert.EqualValues(t, 2, lines[0]["n"])
}

func TestContentMeshLoggerLevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "w", lines[0]["msg"])
	assert.Equal(t, "e", lines[1]["msg"])
}

func TestWithContextDoesNotLeak(t *testing.T) {
	base, buf := newBufferLogger(LogLevelInfo)
	child := base.WithContext("agent", "parse")
	base.Info("base")
	child.Info("child")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "agent")
	assert.Equal(t, "parse", lines[1]["agent"])
}

func TestDomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.LogLLMCall(LLMCall{Provider: "anthropic", Model: "claude", MaxTokens: 100, ResponseLen: 12, Duration: time.Millisecond})
	l.LogLLMCall(LLMCall{Provider: "anthropic", Model: "claude", MaxTokens: 100, Duration: time.Millisecond, Err: errors.New("down")})
	l.LogNodeExecution("page_gen", []string{"page-generation"}, time.Millisecond)
	l.LogRun(7, 1, time.Second, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "LLM call completed", lines[0]["msg"])
	assert.EqualValues(t, 12, lines[0]["response_len"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "LLM call failed", lines[1]["msg"])
	assert.Equal(t, "down", lines[1]["error"])
	assert.Equal(t, "page_gen", lines[2]["stage"])
	assert.EqualValues(t, 7, lines[3]["step_count"])
}

// recordingLogger is a plain Logger without the optional capabilities.
type recordingLogger struct {
	NoOpLogger
	warns, errors []string
	args          [][]any
}

func (r *recordingLogger) Warn(msg string, args ...any) {
	r.warns = append(r.warns, msg)
	r.args = append(r.args, args)
}

func (r *recordingLogger) Error(msg string, args ...any) {
	r.errors = append(r.errors, msg)
	r.args = append(r.args, args)
}

func TestAsLLMCallLogger(t *testing.T) {
	l, _ := newBufferLogger(LogLevelDebug)
	assert.Same(t, l, AsLLMCallLogger(l))

	rec := &recordingLogger{}
	cl := AsLLMCallLogger(rec)
	cl.LogLLMCall(LLMCall{Model: "gpt", Duration: time.Millisecond})
	assert.Empty(t, rec.warns)

	cl.LogLLMCall(LLMCall{Model: "gpt", Err: errors.New("quota")})
	require.Equal(t, []string{"LLM call failed"}, rec.warns)
	assert.Contains(t, rec.args[0], "quota")
}

func TestErrorWithStack(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	ErrorWithStack(l, errors.New("boom"), "agent panicked", "agent", "parse")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "parse", lines[0]["agent"])
	assert.Contains(t, lines[0]["stack_trace"], "goroutine")

	rec := &recordingLogger{}
	ErrorWithStack(rec, errors.New("boom"), "agent panicked")
	require.Equal(t, []string{"agent panicked"}, rec.errors)
	assert.Equal(t, []any{"error", "boom"}, rec.args[0])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestNoOpLoggerSatisfiesInterface(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Info("ignored", "k", "v")
	var _ Logger = NewSlogLogger(LogLevelInfo, "text", false)
}
