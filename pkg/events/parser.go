package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// wireEvent is the NDJSON form of an Event. ParentID is a pointer so that
// an absent attribute and an empty string stay distinguishable.
type wireEvent struct {
	Kind     string       `json:"kind"`
	ID       string       `json:"id"`
	ParentID *string      `json:"parentId"`
	FullName string       `json:"fullname"`
	Result   string       `json:"result,omitempty"`
	Duration string       `json:"duration,omitempty"`
	Output   string       `json:"output,omitempty"`
	Failure  *wireFailure `json:"failure,omitempty"`
	Reason   *wireReason  `json:"reason,omitempty"`
}

type wireFailure struct {
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace"`
}

type wireReason struct {
	Message string `json:"message"`
}

func (w wireEvent) event() Event {
	e := Event{
		Kind:     Kind(w.Kind),
		ID:       w.ID,
		FullName: w.FullName,
		Result:   w.Result,
		Duration: w.Duration,
		Output:   w.Output,
	}
	if w.ParentID != nil {
		e.Parent = Parent(*w.ParentID)
	}
	if w.Failure != nil {
		e.FailureMessage = w.Failure.Message
		e.StackTrace = w.Failure.StackTrace
	}
	if w.Reason != nil {
		e.ReasonMessage = w.Reason.Message
	}
	return e
}

// ParseStream parses lifecycle NDJSON from a reader, line by line.
// Returns the parsed events, the number of malformed lines skipped, and any
// error.
func ParseStream(r io.Reader) ([]Event, int, error) {
	scanner := ScanLimits{}.Scanner(r)

	var out []Event
	var malformed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var w wireEvent
		if err := json.Unmarshal(line, &w); err != nil {
			malformed++
			continue
		}
		out = append(out, w.event())
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, fmt.Errorf("scanning event stream: %w", err)
	}
	return out, malformed, nil
}

// ParseBytes is a convenience for parsing from a byte slice.
func ParseBytes(data []byte) ([]Event, int, error) {
	return ParseStream(strings.NewReader(string(data)))
}

// ProcessFunc receives each parsed event from Stream.
type ProcessFunc func(Event)

// ScanLimits bounds the line scanner. Zero values fall back to the
// defaults; captured output can make lines large, so both are
// configurable.
type ScanLimits struct {
	BufferSize int // initial scanner buffer, bytes
	MaxLine    int // largest accepted line, bytes
}

// Default scanner limits.
const (
	DefaultBufferSize = 64 * 1024
	DefaultMaxLine    = 1024 * 1024
)

// Scanner builds a line scanner over r honoring the limits.
func (l ScanLimits) Scanner(r io.Reader) *bufio.Scanner {
	bufSize := l.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	maxLine := l.MaxLine
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	// The scanner treats the larger of max and cap(buf) as the limit, so
	// the initial buffer must not exceed the line cap.
	if bufSize > maxLine {
		bufSize = maxLine
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufSize), maxLine)
	return scanner
}

// scanResult carries a scanned line or terminal error from the scanner
// goroutine.
type scanResult struct {
	line []byte
	err  error
}

// Stream parses lifecycle events line by line and calls fn for each one.
// Stops on EOF or when ctx is cancelled. Returns the number of malformed
// lines skipped and any error.
//
// Cancellation: the scanner runs in a background goroutine. On context
// cancel, Stream closes r (if it implements io.Closer) to unblock the
// scanner. If r does not implement io.Closer (e.g. *bufio.Reader), the
// caller must close the underlying reader externally to prevent a goroutine
// leak.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc, limits ScanLimits) (int, error) {
	scanner := limits.Scanner(r)

	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			// Copy bytes; the scanner reuses its buffer.
			cp := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- scanResult{line: cp}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	var malformed int
	for {
		select {
		case <-ctx.Done():
			// Attempt to unblock the scanner goroutine.
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return malformed, nil
			}
			if res.err != nil {
				return malformed, res.err
			}
			if len(res.line) == 0 {
				continue
			}
			var w wireEvent
			if err := json.Unmarshal(res.line, &w); err != nil {
				malformed++
				continue
			}
			fn(w.event())
		}
	}
}
