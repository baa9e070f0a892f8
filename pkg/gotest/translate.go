// Package gotest translates go test -json streams into test-lifecycle
// events, so Go test runs can feed the TeamCity publisher directly.
package gotest

import (
	"strconv"
	"strings"
	"time"

	"github.com/dkoosis/tcpub/pkg/events"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// suiteState tracks one open package suite and its open tests.
type suiteState struct {
	id        string
	tests     map[string]string // test name -> id
	testOrder []string          // names in run order, finished ones skipped
	// Buffered output per test ("" = package-level), attached to the
	// finishing event.
	output map[string][]string
}

// Translator converts go test -json events into lifecycle events.
// Packages become root suites (current convention, empty parentId), tests
// become children of their package suite. Not safe for concurrent use; go
// test emits a single ordered stream.
type Translator struct {
	suites  map[string]*suiteState
	order   []string
	nextID  int
	started bool
}

// NewTranslator returns a translator with no open suites.
func NewTranslator() *Translator {
	return &Translator{suites: make(map[string]*suiteState)}
}

func (t *Translator) allocID() string {
	t.nextID++
	return strconv.Itoa(t.nextID)
}

// Translate converts one go test event into zero or more lifecycle events,
// in emission order. The first event of a stream is preceded by start-run.
func (t *Translator) Translate(e TestEvent) []events.Event {
	var out []events.Event
	if !t.started {
		t.started = true
		out = append(out, events.Event{Kind: events.StartRun, FullName: "go test"})
	}

	switch e.Action {
	case "start":
		_, evs := t.openSuite(e.Package)
		out = append(out, evs...)

	case "run":
		out = append(out, t.openTest(e.Package, e.Test)...)

	case "pass", "fail", "skip":
		if e.Test != "" {
			out = append(out, t.finishTest(e)...)
		} else {
			out = append(out, t.finishSuite(e)...)
		}

	case "output":
		t.bufferOutput(e)

	case "bench", "pause", "cont":
		// ignored
	}
	return out
}

// openSuite returns the suite for pkg, creating it (and its start-suite
// event) on first reference.
func (t *Translator) openSuite(pkg string) (*suiteState, []events.Event) {
	if s, ok := t.suites[pkg]; ok {
		return s, nil
	}
	s := &suiteState{
		id:     t.allocID(),
		tests:  make(map[string]string),
		output: make(map[string][]string),
	}
	t.suites[pkg] = s
	t.order = append(t.order, pkg)
	return s, []events.Event{{
		Kind:     events.StartSuite,
		ID:       s.id,
		Parent:   events.Parent(""),
		FullName: pkg,
	}}
}

func (t *Translator) openTest(pkg, test string) []events.Event {
	s, out := t.openSuite(pkg)
	if _, ok := s.tests[test]; ok {
		return out
	}
	id := t.allocID()
	s.tests[test] = id
	s.testOrder = append(s.testOrder, test)
	return append(out, events.Event{
		Kind:     events.StartTest,
		ID:       id,
		Parent:   events.Parent(s.id),
		FullName: testName(pkg, test),
	})
}

func (t *Translator) finishTest(e TestEvent) []events.Event {
	// A finish without a preceding run still emits a balanced pair.
	out := t.openTest(e.Package, e.Test)
	s := t.suites[e.Package]
	id := s.tests[e.Test]
	delete(s.tests, e.Test)

	buffered := strings.Join(s.output[e.Test], "\n")
	delete(s.output, e.Test)

	ev := events.Event{
		Kind:     events.CaseResult,
		ID:       id,
		Parent:   events.Parent(s.id),
		FullName: testName(e.Package, e.Test),
		Duration: strconv.FormatFloat(e.Elapsed, 'f', -1, 64),
	}
	switch e.Action {
	case "pass":
		ev.Result = events.ResultPassed
		ev.Output = buffered
	case "fail":
		ev.Result = events.ResultFailed
		ev.FailureMessage = firstLine(buffered)
		ev.StackTrace = buffered
	case "skip":
		ev.Result = events.ResultSkipped
		ev.ReasonMessage = buffered
	}
	return append(out, ev)
}

func (t *Translator) finishSuite(e TestEvent) []events.Event {
	s, out := t.openSuite(e.Package)

	// Close any tests left open, e.g. after a panic mid-test, in the
	// order they started.
	for _, test := range s.testOrder {
		id, open := s.tests[test]
		if !open {
			continue
		}
		buffered := strings.Join(s.output[test], "\n")
		out = append(out, events.Event{
			Kind:           events.CaseResult,
			ID:             id,
			Parent:         events.Parent(s.id),
			FullName:       testName(e.Package, test),
			Result:         events.ResultFailed,
			FailureMessage: "test did not finish",
			StackTrace:     buffered,
		})
	}

	out = append(out, events.Event{
		Kind:     events.SuiteResult,
		ID:       s.id,
		Parent:   events.Parent(""),
		FullName: e.Package,
		Duration: strconv.FormatFloat(e.Elapsed, 'f', -1, 64),
	})
	delete(t.suites, e.Package)
	return out
}

func (t *Translator) bufferOutput(e TestEvent) {
	output := strings.TrimRight(e.Output, "\n")
	if output == "" || isBoilerplate(output) {
		return
	}
	s, _ := t.openSuite(e.Package)
	s.output[e.Test] = append(s.output[e.Test], output)
}

// Flush closes suites still open at end of stream (an interrupted run never
// sees their package-level pass/fail), so the consumer's flows all close.
func (t *Translator) Flush() []events.Event {
	var out []events.Event
	for _, pkg := range t.order {
		if _, ok := t.suites[pkg]; !ok {
			continue
		}
		out = append(out, t.finishSuite(TestEvent{Action: "fail", Package: pkg})...)
	}
	return out
}

// testName builds the displayed test name from package and test.
func testName(pkg, test string) string {
	return pkg + "." + test
}

// isBoilerplate reports go test framing lines that carry no information
// beyond the events themselves.
func isBoilerplate(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "=== RUN") ||
		strings.HasPrefix(trimmed, "=== PAUSE") ||
		strings.HasPrefix(trimmed, "=== CONT") ||
		strings.HasPrefix(trimmed, "--- FAIL") ||
		strings.HasPrefix(trimmed, "--- PASS") ||
		strings.HasPrefix(trimmed, "--- SKIP")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
