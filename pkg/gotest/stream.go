package gotest

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dkoosis/tcpub/pkg/events"
)

type scanResult struct {
	line []byte
	err  error
}

// Stream reads go test -json from r and delivers the translated lifecycle
// events to fn, one at a time, in order. At end of stream any suites still
// open are closed via Flush. Returns the number of malformed lines skipped
// and any error.
//
// Cancellation follows the same contract as events.Stream: on context
// cancel the reader is closed if it implements io.Closer, otherwise the
// caller must close the underlying reader to unblock the scanner goroutine.
func Stream(ctx context.Context, r io.Reader, fn events.ProcessFunc, limits events.ScanLimits) (int, error) {
	scanner := limits.Scanner(r)

	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		for scanner.Scan() {
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

	t := NewTranslator()
	deliver := func(evs []events.Event) {
		for _, ev := range evs {
			fn(ev)
		}
	}

	var malformed int
	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case res, ok := <-lines:
			if !ok {
				deliver(t.Flush())
				return malformed, nil
			}
			if res.err != nil {
				deliver(t.Flush())
				return malformed, res.err
			}
			if len(res.line) == 0 {
				continue
			}
			var e TestEvent
			if err := json.Unmarshal(res.line, &e); err != nil {
				malformed++
				continue
			}
			deliver(t.Translate(e))
		}
	}
}
