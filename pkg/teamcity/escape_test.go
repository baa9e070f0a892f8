package teamcity

import (
	"strings"
	"testing"
)

func TestEscape_ReservedCharacters(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"pipe", "a|b", "a||b"},
		{"quote", "it's", "it|'s"},
		{"newline", "a\nb", "a|nb"},
		{"carriage_return", "a\rb", "a|rb"},
		{"next_line", "a\u0086b", "a|xb"},
		{"line_separator", "a\u2028b", "a|lb"},
		{"paragraph_separator", "a\u2029b", "a|pb"},
		{"open_bracket", "a[b", "a|[b"},
		{"close_bracket", "a]b", "a|]b"},
		{"clean", "Sample.Tests.Assemblies.MockTestFixture", "Sample.Tests.Assemblies.MockTestFixture"},
		{"empty", "", ""},
		{"everything", "|'\n\r[]", "|||'|n|r|[|]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Escape(tc.in); got != tc.want {
				t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// The pipe rule must not re-escape the output of other rules: a literal
// pipe followed by a bracket escapes to '|||[' and unescapes back exactly.
func TestEscape_RoundTrip(t *testing.T) {
	inputs := []string{
		"a|b'c\nd\re[f]g",
		"||||",
		"|n",  // literal pipe then n, not a newline
		"['']",
		"message with | and [brackets] and 'quotes'\r\n",
	}
	for _, in := range inputs {
		if got := unescape(Escape(in)); got != in {
			t.Errorf("round trip of %q = %q", in, got)
		}
	}
}

// unescape reverses Escape for test purposes.
func unescape(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '|' || i+1 >= len(runes) {
			sb.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case '|':
			sb.WriteRune('|')
		case '\'':
			sb.WriteRune('\'')
		case 'n':
			sb.WriteRune('\n')
		case 'r':
			sb.WriteRune('\r')
		case 'x':
			sb.WriteRune('\u0086')
		case 'l':
			sb.WriteRune('\u2028')
		case 'p':
			sb.WriteRune('\u2029')
		case '[':
			sb.WriteRune('[')
		case ']':
			sb.WriteRune(']')
		default:
			sb.WriteRune('|')
			sb.WriteRune(runes[i])
		}
	}
	return sb.String()
}
