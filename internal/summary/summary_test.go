package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/tcpub/pkg/events"
)

func observe(t *Tracker, evs ...events.Event) {
	for _, e := range evs {
		t.Observe(e)
	}
}

func TestTracker_CountsOutcomes(t *testing.T) {
	tr := NewTracker()
	observe(tr,
		events.Event{Kind: events.CaseResult, ID: "1", FullName: "a", Result: "passed"},
		events.Event{Kind: events.CaseResult, ID: "2", FullName: "b", Result: "passed"},
		events.Event{Kind: events.CaseResult, ID: "3", FullName: "c", Result: "failed"},
		events.Event{Kind: events.CaseResult, ID: "4", FullName: "d", Result: "skipped"},
		events.Event{Kind: events.CaseResult, ID: "5", FullName: "e", Result: "inconclusive"},
	)

	assert.Equal(t, 5, tr.Total())
	assert.True(t, tr.Failed())
}

func TestTracker_StartRunResets(t *testing.T) {
	tr := NewTracker()
	observe(tr,
		events.Event{Kind: events.CaseResult, ID: "1", FullName: "a", Result: "failed"},
		events.Event{Kind: events.StartRun},
	)
	assert.Equal(t, 0, tr.Total())
	assert.False(t, tr.Failed())
}

func TestTracker_RecordsRootSuites(t *testing.T) {
	tr := NewTracker()
	observe(tr,
		// Current convention root
		events.Event{Kind: events.StartSuite, ID: "1", Parent: events.Parent(""), FullName: "Modern.dll"},
		events.Event{Kind: events.StartSuite, ID: "2", Parent: events.Parent("1"), FullName: "Modern.Fixture"},
		events.Event{Kind: events.SuiteResult, ID: "2", Parent: events.Parent("1"), FullName: "Modern.Fixture"},
		events.Event{Kind: events.SuiteResult, ID: "1", Parent: events.Parent(""), FullName: "Modern.dll", Duration: "1.5"},
	)
	// Legacy convention root, nested two deep
	observe(tr,
		events.Event{Kind: events.StartSuite, ID: "3", Parent: events.NoParent(), FullName: "Legacy.dll"},
		events.Event{Kind: events.StartSuite, ID: "4", Parent: events.NoParent(), FullName: "Legacy.Inner"},
		events.Event{Kind: events.SuiteResult, ID: "4", Parent: events.NoParent(), FullName: "Legacy.Inner"},
		events.Event{Kind: events.SuiteResult, ID: "3", Parent: events.NoParent(), FullName: "Legacy.dll"},
	)

	require.Len(t, tr.roots, 2)
	assert.Equal(t, "Modern.dll", tr.roots[0].Name)
	assert.Equal(t, "1.5", tr.roots[0].Duration)
	assert.Equal(t, "Legacy.dll", tr.roots[1].Name)
}

func TestRender_ContainsSuitesAndCounts(t *testing.T) {
	tr := NewTracker()
	observe(tr,
		events.Event{Kind: events.StartSuite, ID: "1", Parent: events.Parent(""), FullName: "Tests.dll"},
		events.Event{Kind: events.CaseResult, ID: "2", FullName: "T.M", Result: "passed"},
		events.Event{Kind: events.CaseResult, ID: "3", FullName: "T.N", Result: "failed"},
		events.Event{Kind: events.SuiteResult, ID: "1", Parent: events.Parent(""), FullName: "Tests.dll", Duration: "0.7"},
	)

	out := tr.Render(MonoTheme(), 80)
	assert.Contains(t, out, "Test Run Summary")
	assert.Contains(t, out, "Tests.dll")
	assert.Contains(t, out, "2 tests: 1 passed, 1 failed, 0 skipped")
	// Mono theme failure icon
	assert.Contains(t, out, "x Tests.dll")
}

func TestRender_NarrowTerminal(t *testing.T) {
	tr := NewTracker()
	observe(tr,
		events.Event{Kind: events.StartSuite, ID: "1", Parent: events.Parent(""), FullName: "Quite.A.Long.Assembly.Name.dll"},
		events.Event{Kind: events.CaseResult, ID: "2", FullName: "T.M", Result: "passed"},
		events.Event{Kind: events.SuiteResult, ID: "1", Parent: events.Parent(""), FullName: "Quite.A.Long.Assembly.Name.dll", Duration: "0.1"},
	)

	out := tr.Render(MonoTheme(), 10)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "Quite")
	assert.Contains(t, out, "...")
}

func TestRender_InconclusiveShownOnlyWhenPresent(t *testing.T) {
	tr := NewTracker()
	observe(tr, events.Event{Kind: events.CaseResult, ID: "1", FullName: "a", Result: "passed"})
	assert.NotContains(t, tr.Render(MonoTheme(), 80), "inconclusive")

	observe(tr, events.Event{Kind: events.CaseResult, ID: "2", FullName: "b", Result: "inconclusive"})
	assert.Contains(t, tr.Render(MonoTheme(), 80), "1 inconclusive")
}
