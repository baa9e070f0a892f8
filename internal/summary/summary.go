// Package summary accumulates run statistics from the lifecycle event
// stream and renders a short styled block for stderr. It never writes to
// stdout, which carries the service message protocol.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/tcpub/pkg/events"
)

// SuiteResult is one finished top-level suite.
type SuiteResult struct {
	Name     string
	Failed   bool
	Duration string // seconds, as carried by the event
}

// Tracker observes lifecycle events and accumulates display statistics.
// It is display-only: it shares no state with the publisher and never
// influences the protocol stream.
type Tracker struct {
	passed       int
	failed       int
	skipped      int
	inconclusive int

	// Open top-level suites by id; "" keys the legacy root.
	open  map[string]string
	roots []SuiteResult
	depth int // legacy nesting depth
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[string]string)}
}

// Observe feeds one event into the statistics.
func (t *Tracker) Observe(e events.Event) {
	switch e.Kind {
	case events.StartRun:
		*t = *NewTracker()
	case events.StartSuite:
		if e.Parent.Present && e.Parent.ID == "" {
			t.open[e.ID] = e.FullName
		}
		if !e.Parent.Present {
			t.depth++
			if t.depth == 1 {
				t.open[""] = e.FullName
			}
		}
	case events.SuiteResult:
		if e.Parent.Present && e.Parent.ID == "" {
			delete(t.open, e.ID)
			t.roots = append(t.roots, SuiteResult{Name: e.FullName, Failed: t.failedNow(), Duration: e.Duration})
		}
		if !e.Parent.Present {
			t.depth--
			if t.depth == 0 {
				delete(t.open, "")
				t.roots = append(t.roots, SuiteResult{Name: e.FullName, Failed: t.failedNow(), Duration: e.Duration})
			}
		}
	case events.CaseResult:
		switch strings.ToLower(e.Result) {
		case events.ResultPassed:
			t.passed++
		case events.ResultFailed:
			t.failed++
		case events.ResultSkipped:
			t.skipped++
		case events.ResultInconclusive:
			t.inconclusive++
		}
	}
}

// failedNow reports whether any failure has been observed so far. Per-suite
// attribution would need per-flow accounting; the summary only promises a
// run-level verdict.
func (t *Tracker) failedNow() bool {
	return t.failed > 0
}

// Failed reports whether the run observed any failing test.
func (t *Tracker) Failed() bool {
	return t.failed > 0
}

// Total returns the number of finished tests.
func (t *Tracker) Total() int {
	return t.passed + t.failed + t.skipped + t.inconclusive
}

// Render formats the summary block. Lines are padded to aligned columns by
// display width, not byte length.
func (t *Tracker) Render(theme Theme, width int) string {
	if width <= 0 {
		width = 80
	}
	title := cases.Title(language.English).String("test run summary")

	var sb strings.Builder
	sb.WriteString(theme.Bold.Render(title))
	sb.WriteString("\n")

	maxName := 0
	for _, r := range t.roots {
		if w := runewidth.StringWidth(r.Name); w > maxName {
			maxName = w
		}
	}
	if maxName > width-20 {
		maxName = width - 20
	}
	// Very narrow terminals still get a usable column.
	if maxName < 8 {
		maxName = 8
	}

	for _, r := range t.roots {
		icon, style := theme.Icons.Pass, theme.Success
		if r.Failed {
			icon, style = theme.Icons.Fail, theme.Error
		}
		name := runewidth.Truncate(r.Name, maxName, "...")
		line := fmt.Sprintf("  %s %s  %ss", icon, runewidth.FillRight(name, maxName), durationOrZero(r.Duration))
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	counts := fmt.Sprintf("  %d tests: %d passed, %d failed, %d skipped",
		t.Total(), t.passed, t.failed, t.skipped)
	if t.inconclusive > 0 {
		counts += fmt.Sprintf(", %d inconclusive", t.inconclusive)
	}
	if t.failed > 0 {
		sb.WriteString(theme.Error.Render(counts))
	} else {
		sb.WriteString(theme.Muted.Render(counts))
	}
	sb.WriteString("\n")
	return sb.String()
}

func durationOrZero(s string) string {
	if s == "" {
		return "0"
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "0"
	}
	return s
}
