package teamcity

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dkoosis/tcpub/pkg/events"
)

// Publisher is the entry point of the translator: it classifies each
// incoming lifecycle event, maintains the parent registry, resolves flow
// ids, and emits the corresponding service messages. Output line order
// equals input event order; nothing is buffered or reordered.
//
// Safe for concurrent use. Test workers running suites in parallel may
// deliver events for different ids simultaneously; the registry arbitrates
// reads and writes, and the legacy nesting counter is a bare atomic.
type Publisher struct {
	w    *Writer
	refs *Registry

	// Legacy-convention state. Events without a parentId reference an
	// implicit global root, inferred by counting unparented suite
	// start/finish pairs: only the 0->1 and 1->0 transitions mark a root.
	blocks     atomic.Int32
	rootMu     sync.Mutex
	legacyRoot string
}

// NewPublisher creates a publisher writing service messages to out.
// A nil out is a configuration error.
func NewPublisher(out io.Writer) (*Publisher, error) {
	w, err := NewWriter(out)
	if err != nil {
		return nil, err
	}
	return &Publisher{w: w, refs: NewRegistry()}, nil
}

// Registry exposes the parent registry, mainly for tests asserting the
// open-entry invariant.
func (p *Publisher) Registry() *Registry {
	return p.refs
}

// Publish processes one lifecycle event. Events with an empty fullname are
// discarded without touching any state; start-run is the exception and
// always resets the publisher, marking the beginning of a new run.
// Unknown kinds and malformed parent references degrade to no-ops rather
// than aborting the run.
func (p *Publisher) Publish(e events.Event) error {
	if e.Kind == events.StartRun {
		p.reset()
		return nil
	}
	if e.FullName == "" {
		return nil
	}

	// Resolve flows before mutating the registry, so the event's own
	// entry never feeds its own resolution.
	flowID, testFlowID := p.resolveFlow(e)

	switch e.Kind {
	case events.StartSuite:
		p.refs.Set(e.ID, e.Parent.ID)
		return p.suiteStarted(e, flowID)

	case events.SuiteResult:
		p.refs.Clear(e.ID)
		return p.suiteFinished(e, flowID)

	case events.StartTest:
		p.refs.Set(e.ID, e.Parent.ID)
		if opensFlow(e, flowID) {
			if err := p.w.FlowStarted(e.ID, flowID); err != nil {
				return err
			}
		}
		return p.w.TestStarted(e.FullName, testFlowID)

	case events.CaseResult:
		p.refs.Clear(e.ID)
		return p.caseResult(e, flowID, testFlowID)
	}

	// Unknown kind: ignore.
	return nil
}

// resolveFlow computes the grouping flow id and the id written to this
// event's own lines. An event with an explicit parent resolves through the
// registry chain walk, falling back to its own id when the walk finds
// nothing; an event without one belongs to the tracked legacy root.
func (p *Publisher) resolveFlow(e events.Event) (flowID, testFlowID string) {
	if e.Parent.Present {
		if root, ok := p.refs.FindRoot(e.Parent.ID); ok {
			flowID = root
		} else {
			flowID = e.ID
		}
	} else {
		flowID = p.currentLegacyRoot()
	}

	switch {
	case opensFlow(e, flowID):
		// The event introduces a nested flow of its own.
		testFlowID = e.ID
	case flowID != "":
		testFlowID = flowID
	default:
		testFlowID = e.ID
	}
	return flowID, testFlowID
}

// opensFlow reports whether e establishes a new nested flow rather than
// continuing an existing one.
func opensFlow(e events.Event, flowID string) bool {
	return e.ID != flowID && e.Parent.Present
}

func (p *Publisher) suiteStarted(e events.Event, flowID string) error {
	if e.Parent.Present {
		if e.Parent.ID == "" {
			// Top-level suite, current convention.
			return p.w.SuiteStarted(e.FullName, flowID)
		}
		return nil
	}
	// Legacy convention: only the outermost unparented suite is a root.
	if p.blocks.Add(1) == 1 {
		p.setLegacyRoot(e.ID)
		return p.w.SuiteStarted(e.FullName, e.ID)
	}
	return nil
}

func (p *Publisher) suiteFinished(e events.Event, flowID string) error {
	if e.Parent.Present {
		if e.Parent.ID == "" {
			return p.w.SuiteFinished(e.FullName, flowID)
		}
		return nil
	}
	if p.blocks.Add(-1) == 0 {
		p.setLegacyRoot("")
		return p.w.SuiteFinished(e.FullName, e.ID)
	}
	return nil
}

// caseResult dispatches on the test outcome. The flow-finished message is
// owed whenever the matching start-test opened a flow, and it must go out
// even when emitting the outcome fails: skipping it would leave the flow
// permanently open from the consumer's perspective.
func (p *Publisher) caseResult(e events.Event, flowID, testFlowID string) (err error) {
	if opensFlow(e, flowID) {
		defer func() {
			if ferr := p.w.FlowFinished(e.ID); err == nil {
				err = ferr
			}
		}()
	}
	err = p.outcome(e, testFlowID)
	return err
}

func (p *Publisher) outcome(e events.Event, flowID string) error {
	switch strings.ToLower(e.Result) {
	case events.ResultPassed:
		return p.testFinished(e, flowID)
	case events.ResultInconclusive:
		// The reason is always the literal "Inconclusive", whatever the
		// event carries.
		return p.w.TestIgnored(e.FullName, "Inconclusive", flowID)
	case events.ResultSkipped:
		if e.Output != "" {
			if err := p.w.TestStdOut(e.FullName, e.Output, flowID); err != nil {
				return err
			}
		}
		return p.w.TestIgnored(e.FullName, e.ReasonMessage, flowID)
	case events.ResultFailed:
		if err := p.w.TestFailed(e.FullName, e.FailureMessage, e.StackTrace, flowID); err != nil {
			return err
		}
		// Failed tests are reported as both failed and finished.
		return p.testFinished(e, flowID)
	}
	// Unknown outcome: ignore.
	return nil
}

func (p *Publisher) testFinished(e events.Event, flowID string) error {
	if e.Output != "" {
		if err := p.w.TestStdOut(e.FullName, e.Output, flowID); err != nil {
			return err
		}
	}
	return p.w.TestFinished(e.FullName, durationMillis(e.Duration), flowID)
}

// durationMillis parses an invariant decimal seconds value and truncates to
// whole milliseconds. Absent or unparsable durations count as zero.
func durationMillis(s string) int64 {
	if s == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(secs * 1000)
}

// reset wipes all run-scoped state: registry entries, the nesting counter
// and the tracked legacy root.
func (p *Publisher) reset() {
	p.refs.ClearAll()
	p.blocks.Store(0)
	p.setLegacyRoot("")
}

func (p *Publisher) setLegacyRoot(id string) {
	p.rootMu.Lock()
	p.legacyRoot = id
	p.rootMu.Unlock()
}

func (p *Publisher) currentLegacyRoot() string {
	p.rootMu.Lock()
	defer p.rootMu.Unlock()
	return p.legacyRoot
}
