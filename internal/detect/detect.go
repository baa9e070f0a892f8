// Package detect sniffs stdin to determine the input format.
package detect

import "encoding/json"

// Format represents a recognized input format.
type Format int

const (
	Unknown   Format = iota
	Lifecycle        // test-lifecycle NDJSON stream
	GoTestJSON       // go test -json NDJSON stream
)

// Sniff examines the first bytes of input to determine format.
// Input must contain at least the first complete line.
func Sniff(data []byte) Format {
	// Trim leading whitespace
	for len(data) > 0 && (data[0] == ' ' || data[0] == '\t' || data[0] == '\n' || data[0] == '\r') {
		data = data[1:]
	}
	if len(data) == 0 || data[0] != '{' {
		return Unknown
	}

	firstLine := data
	for i, b := range data {
		if b == '\n' {
			firstLine = data[:i]
			break
		}
	}

	if isLifecycle(firstLine) {
		return Lifecycle
	}
	if isGoTestJSON(firstLine) {
		return GoTestJSON
	}
	return Unknown
}

func isLifecycle(line []byte) bool {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return false
	}
	validKinds := map[string]bool{
		"start-run": true, "start-suite": true, "test-suite": true,
		"start-test": true, "test-case": true,
	}
	return validKinds[probe.Kind]
}

func isGoTestJSON(line []byte) bool {
	var probe struct {
		Action string `json:"Action"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return false
	}
	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	return validActions[probe.Action]
}
