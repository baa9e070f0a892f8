package teamcity

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// ErrNilSink is returned when a Writer or Publisher is constructed without
// an output writer.
var ErrNilSink = errors.New("teamcity: nil output sink")

// Writer emits service messages, one complete line per call. Every field
// value is escaped before substitution, and a mutex serializes writes so
// concurrent callers interleave at line granularity, never mid-line.
//
// Field order within a line is fixed per message type; the consumer does
// not accept reordered fields.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter wraps out. A nil out is a configuration error.
func NewWriter(out io.Writer) (*Writer, error) {
	if out == nil {
		return nil, ErrNilSink
	}
	return &Writer{out: out}, nil
}

func (w *Writer) line(format string, fields ...string) error {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = Escape(f)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.out, format+"\n", args...); err != nil {
		return fmt.Errorf("writing service message: %w", err)
	}
	return nil
}

// SuiteStarted reports a root suite opening.
func (w *Writer) SuiteStarted(name, flowID string) error {
	return w.line("##teamcity[testSuiteStarted name='%s' flowId='%s']", name, flowID)
}

// SuiteFinished reports a root suite closing.
func (w *Writer) SuiteFinished(name, flowID string) error {
	return w.line("##teamcity[testSuiteFinished name='%s' flowId='%s']", name, flowID)
}

// FlowStarted opens a nested flow under parentFlowID.
func (w *Writer) FlowStarted(flowID, parentFlowID string) error {
	return w.line("##teamcity[flowStarted flowId='%s' parent='%s']", flowID, parentFlowID)
}

// FlowFinished closes a nested flow.
func (w *Writer) FlowFinished(flowID string) error {
	return w.line("##teamcity[flowFinished flowId='%s']", flowID)
}

// TestStarted reports a test opening. Output capture is always declared
// off: captured output travels on the events themselves, not the stream.
func (w *Writer) TestStarted(name, flowID string) error {
	return w.line("##teamcity[testStarted name='%s' captureStandardOutput='false' flowId='%s']", name, flowID)
}

// TestStdOut reports captured standard output for a test.
func (w *Writer) TestStdOut(name, out, flowID string) error {
	return w.line("##teamcity[testStdOut name='%s' out='%s' flowId='%s']", name, out, flowID)
}

// TestFailed reports a test failure with its message and stack trace.
func (w *Writer) TestFailed(name, message, details, flowID string) error {
	return w.line("##teamcity[testFailed name='%s' message='%s' details='%s' flowId='%s']", name, message, details, flowID)
}

// TestFinished reports a completed test with its duration in whole
// milliseconds.
func (w *Writer) TestFinished(name string, durationMS int64, flowID string) error {
	return w.line("##teamcity[testFinished name='%s' duration='%s' flowId='%s']",
		name, strconv.FormatInt(durationMS, 10), flowID)
}

// TestIgnored reports a skipped or inconclusive test.
func (w *Writer) TestIgnored(name, reason, flowID string) error {
	return w.line("##teamcity[testIgnored name='%s' message='%s' flowId='%s']", name, reason, flowID)
}
