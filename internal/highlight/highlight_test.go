package highlight

import "testing"

func TestHighlightUnknownLanguage(t *testing.T) {
	if spans := Highlight("cobol", []byte("DISPLAY 'hi'.")); spans != nil {
		t.Fatalf("got %v, want nil for unknown language", spans)
	}
}

func TestHighlightGoKeywordAndString(t *testing.T) {
	spans := Highlight("go", []byte(`func main() { s := "hi" }`))
	wantKeyword := false
	wantString := false
	for _, s := range spans {
		if s.Kind == TokenKeyword && s.Start == 0 && s.End == 4 {
			wantKeyword = true
		}
		if s.Kind == TokenString {
			wantString = true
		}
	}
	if !wantKeyword {
		t.Errorf("expected 'func' keyword span, got %v", spans)
	}
	if !wantString {
		t.Errorf("expected a string span, got %v", spans)
	}
}

func TestHighlightLineComment(t *testing.T) {
	line := []byte(`x := 1 // trailing note`)
	spans := Highlight("go", line)
	found := false
	for _, s := range spans {
		if s.Kind == TokenComment && s.Start == 7 && s.End == len(line) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected comment span from offset 7 to end, got %v", spans)
	}
}

func TestHighlightPythonHashComment(t *testing.T) {
	spans := Highlight("python", []byte("x = 1  # note"))
	if len(spans) == 0 || spans[len(spans)-1].Kind != TokenComment {
		t.Fatalf("expected trailing comment span, got %v", spans)
	}
}

func TestHighlightNumber(t *testing.T) {
	spans := Highlight("go", []byte("x := 42"))
	found := false
	for _, s := range spans {
		if s.Kind == TokenNumber {
			found = true
		}
	}
	if !found {
		t.Errorf("expected number span, got %v", spans)
	}
}
