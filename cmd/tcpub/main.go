// tcpub translates test-lifecycle event streams into TeamCity service
// messages.
//
// Usage:
//
//	go test -json ./... | tcpub
//	test-runner --events | tcpub --format events
//
// Accepts two input formats on stdin (auto-detected):
//   - test-lifecycle NDJSON ({"kind":"start-suite",...})
//   - go test -json
//
// Service messages go to stdout; an optional styled summary goes to stderr
// when stderr is a terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/dkoosis/tcpub/internal/config"
	"github.com/dkoosis/tcpub/internal/detect"
	"github.com/dkoosis/tcpub/internal/summary"
	"github.com/dkoosis/tcpub/internal/version"
	"github.com/dkoosis/tcpub/pkg/events"
	"github.com/dkoosis/tcpub/pkg/gotest"
	"github.com/dkoosis/tcpub/pkg/teamcity"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tcpub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatFlag := fs.String("format", "auto", "Input format: auto, events, gotest")
	themeFlag := fs.String("theme", "", "Summary theme: default, orca, mono")
	summaryFlag := fs.Bool("summary", true, "Print a run summary to stderr")
	noColorFlag := fs.Bool("no-color", false, "Disable summary colors")
	debugFlag := fs.Bool("debug", false, "Print debug diagnostics to stderr")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "tcpub %s (%s, %s)\n", version.Version, version.CommitHash, version.BuildDate)
		return 0
	}

	cfg := config.Merge(config.Load(), config.CliFlags{
		Format:     *formatFlag,
		Theme:      *themeFlag,
		Summary:    *summaryFlag,
		NoColor:    *noColorFlag,
		Debug:      *debugFlag,
		SummarySet: flagWasSet(fs, "summary"),
		NoColorSet: flagWasSet(fs, "no-color"),
		DebugSet:   flagWasSet(fs, "debug"),
	})

	// Peek stdin to detect format without consuming
	br := bufio.NewReaderSize(stdin, 8*1024)
	peeked, _ := br.Peek(4096)
	if len(peeked) == 0 {
		fmt.Fprintf(stderr, "tcpub: no input on stdin\n")
		return 2
	}

	format, code := resolveFormat(cfg.Format, peeked, stderr)
	if code >= 0 {
		return code
	}
	if cfg.Debug {
		fmt.Fprintf(stderr, "[DEBUG tcpub] input format: %v, theme: %s\n", format, cfg.Theme)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	// Close the underlying reader on cancel to unblock the scanner
	// goroutine; bufio.Reader doesn't implement io.Closer.
	if c, ok := stdin.(io.Closer); ok {
		stopClose := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stopClose()
	}

	pub, err := teamcity.NewPublisher(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "tcpub: %v\n", err)
		return 2
	}
	tracker := summary.NewTracker()

	var pubErr error
	process := func(e events.Event) {
		if err := pub.Publish(e); err != nil && pubErr == nil {
			pubErr = err
		}
		tracker.Observe(e)
	}

	limits := events.ScanLimits{
		BufferSize: cfg.MaxBufferSize,
		MaxLine:    cfg.MaxLineLength,
	}
	var malformed int
	switch format {
	case detect.Lifecycle:
		malformed, err = events.Stream(ctx, br, process, limits)
	case detect.GoTestJSON:
		malformed, err = gotest.Stream(ctx, br, process, limits)
	}
	if malformed > 0 {
		fmt.Fprintf(stderr, "tcpub: warning: %d malformed line(s) skipped\n", malformed)
	}
	if err != nil {
		if ctx.Err() != nil {
			return 130
		}
		fmt.Fprintf(stderr, "tcpub: reading stdin: %v\n", err)
		return 2
	}
	if pubErr != nil {
		fmt.Fprintf(stderr, "tcpub: %v\n", pubErr)
		return 2
	}

	// CI mode keeps stderr machine-clean; only the protocol ships.
	if cfg.Summary && !cfg.CI {
		printSummary(tracker, cfg, stderr)
	}

	if tracker.Failed() {
		return 1
	}
	return 0
}

// resolveFormat maps the config value plus sniffed input to a detect
// format. Returns (format, -1) on success; (0, exitCode) on error.
func resolveFormat(configured string, peeked []byte, stderr io.Writer) (detect.Format, int) {
	switch configured {
	case "events":
		return detect.Lifecycle, -1
	case "gotest":
		return detect.GoTestJSON, -1
	case "auto", "":
		format := detect.Sniff(peeked)
		if format == detect.Unknown {
			fmt.Fprintf(stderr, "tcpub: unrecognized input format (expected lifecycle events or go test -json)\n")
			return 0, 2
		}
		return format, -1
	default:
		fmt.Fprintf(stderr, "tcpub: unknown format %q (expected auto, events, gotest)\n", configured)
		return 0, 2
	}
}

// printSummary renders the tracker to stderr when it is a terminal.
// Piped stderr gets nothing: the summary is a human affordance, and CI log
// scrapers should only ever see the protocol on stdout.
func printSummary(tracker *summary.Tracker, cfg *config.Config, stderr io.Writer) {
	f, ok := stderr.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return
	}
	theme := summary.ThemeByName(cfg.Theme)
	if cfg.NoColor {
		theme = summary.MonoTheme()
	}
	width := 80
	if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
		width = tw
	}
	fmt.Fprint(stderr, tracker.Render(theme, width))
}

// flagWasSet reports whether the named flag appeared on the command line.
func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
