// Package events defines the test-lifecycle event model and parses its
// NDJSON wire form.
package events

// Kind identifies what a lifecycle event reports.
type Kind string

const (
	StartRun    Kind = "start-run"   // a new run begins; all prior state is discarded
	StartSuite  Kind = "start-suite" // a suite opened
	SuiteResult Kind = "test-suite"  // a suite finished
	StartTest   Kind = "start-test"  // a test opened
	CaseResult  Kind = "test-case"   // a test finished with an outcome
)

// Test outcomes carried by CaseResult events.
const (
	ResultPassed       = "passed"
	ResultFailed       = "failed"
	ResultSkipped      = "skipped"
	ResultInconclusive = "inconclusive"
)

// ParentRef keeps "no parentId attribute" distinct from "empty parentId".
// Absence means the event uses the legacy convention, where roots are
// inferred from nesting depth; an empty id means a top-level element in the
// current convention. The two route through different flow-resolution
// branches, so absence has to survive parsing.
type ParentRef struct {
	ID      string
	Present bool
}

// Parent returns a reference to an explicit parent id ("" for top-level).
func Parent(id string) ParentRef {
	return ParentRef{ID: id, Present: true}
}

// NoParent returns the legacy-convention reference (attribute absent).
func NoParent() ParentRef {
	return ParentRef{}
}

// Event is a single test-lifecycle event. Fields beyond Kind, ID, Parent
// and FullName are populated only for the kinds that carry them.
type Event struct {
	Kind     Kind
	ID       string
	Parent   ParentRef
	FullName string

	Result   string // CaseResult outcome
	Duration string // elapsed seconds as an invariant decimal, e.g. "0.123"
	Output   string // captured standard output

	FailureMessage string
	StackTrace     string
	ReasonMessage  string
}
