//go:build mage

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - build the binary
var Default = Build

const binPath = "bin/tcpub"

// Build builds the tcpub binary with version metadata.
func Build() error {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	ldflags := fmt.Sprintf(
		"-X github.com/dkoosis/tcpub/internal/version.CommitHash=%s "+
			"-X github.com/dkoosis/tcpub/internal/version.BuildDate=%s",
		commit, time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/tcpub")
}

// Test runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet and staticcheck (if installed).
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}
	if err := sh.RunV("staticcheck", "./..."); err != nil {
		fmt.Fprintln(os.Stderr, "staticcheck not available or failed (install: go install honnef.co/go/tools/cmd/staticcheck@latest)")
	}
	return nil
}

// QA runs lint then tests.
func QA() error {
	mg.Deps(Lint)
	return Test()
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm("bin")
}
