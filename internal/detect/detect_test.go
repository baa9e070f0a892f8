package detect

import "testing"

func TestSniff_Lifecycle(t *testing.T) {
	input := `{"kind":"start-suite","id":"1","parentId":"","fullname":"Tests.dll"}` + "\n"
	if got := Sniff([]byte(input)); got != Lifecycle {
		t.Errorf("expected Lifecycle, got %d", got)
	}
}

func TestSniff_Lifecycle_StartRun(t *testing.T) {
	input := `{"kind":"start-run","id":"0"}` + "\n"
	if got := Sniff([]byte(input)); got != Lifecycle {
		t.Errorf("expected Lifecycle, got %d", got)
	}
}

func TestSniff_GoTestJSON(t *testing.T) {
	input := `{"Time":"2024-01-01T00:00:00Z","Action":"start","Package":"example.com/pkg"}` + "\n"
	if got := Sniff([]byte(input)); got != GoTestJSON {
		t.Errorf("expected GoTestJSON, got %d", got)
	}
}

func TestSniff_GoTestJSON_OutputAction(t *testing.T) {
	input := `{"Time":"2024-01-01T00:00:00Z","Action":"output","Package":"example.com/pkg","Output":"hi\n"}` + "\n"
	if got := Sniff([]byte(input)); got != GoTestJSON {
		t.Errorf("expected GoTestJSON, got %d", got)
	}
}

func TestSniff_Empty(t *testing.T) {
	if got := Sniff([]byte("")); got != Unknown {
		t.Errorf("expected Unknown for empty, got %d", got)
	}
}

func TestSniff_PlainText(t *testing.T) {
	if got := Sniff([]byte("this is not json")); got != Unknown {
		t.Errorf("expected Unknown for plain text, got %d", got)
	}
}

func TestSniff_UnknownKind(t *testing.T) {
	input := `{"kind":"banana","id":"1"}` + "\n"
	if got := Sniff([]byte(input)); got != Unknown {
		t.Errorf("expected Unknown for bogus kind, got %d", got)
	}
}

func TestSniff_LeadingWhitespace(t *testing.T) {
	input := `  {"kind":"test-case","id":"1","parentId":"0","fullname":"T.M","result":"passed"}` + "\n"
	if got := Sniff([]byte(input)); got != Lifecycle {
		t.Errorf("expected Lifecycle with leading whitespace, got %d", got)
	}
}
