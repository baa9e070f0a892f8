// Package teamcity translates test-lifecycle events into the TeamCity
// service message protocol.
package teamcity

import "strings"

// escaper rewrites protocol-reserved characters. strings.Replacer works in
// a single pass over the input, so replacement output is never rescanned:
// '|' becomes '||' without later rules re-escaping the inserted pipe.
var escaper = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"\u0086", "|x", // next line
	"\u2028", "|l", // line separator
	"\u2029", "|p", // paragraph separator
	"[", "|[",
	"]", "|]",
)

// Escape escapes protocol-reserved characters in a service message field
// value.
func Escape(s string) string {
	return escaper.Replace(s)
}
