package app

import (
	"testing"
	"time"

	"zicro/internal/buffer"
	"zicro/internal/clipboard"
	"zicro/internal/config"
	"zicro/internal/lsp"
	"zicro/internal/term"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	buf := buffer.New(nil)
	cfg := config.Default()
	cfg.Lsp.Enabled = false
	a := New(buf, "", cfg, nil)
	a.Clip = &clipboard.Mock{}
	a.writeFile = func(string, []byte) error { return nil }
	return a
}

func rk(r rune) term.KeyEvent { return term.KeyEvent{Key: term.KeyRune, Rune: r} }

func typeString(a *App, s string) {
	for _, r := range s {
		a.handleEditorKey(rk(r))
	}
}

// TestScenarioS1 implements spec §8 scenario S1 verbatim.
func TestScenarioS1(t *testing.T) {
	a := newTestApp(t)
	typeString(a, "abc")

	if a.State.Cursor != 3 {
		t.Fatalf("got cursor=%d, want 3", a.State.Cursor)
	}
	if string(a.Buf.Bytes()) != "abc" {
		t.Fatalf("got buffer=%q, want abc", a.Buf.Bytes())
	}
	if a.Buf.LineCount() != 1 {
		t.Fatalf("got LineCount=%d, want 1", a.Buf.LineCount())
	}

	a.handleEditorKey(term.KeyEvent{Key: term.KeyArrowLeft})
	a.handleEditorKey(term.KeyEvent{Key: term.KeyArrowLeft})
	if a.State.Cursor != 1 {
		t.Fatalf("got cursor=%d, want 1", a.State.Cursor)
	}

	a.handleEditorKey(term.KeyEvent{Key: term.KeyEnd, Shift: true})
	if !a.State.HasSelection() {
		t.Fatal("expected active selection after Shift+End")
	}
	start, end := a.State.SelectionRange()
	if start != 1 || end != 3 {
		t.Fatalf("got selection [%d,%d), want [1,3)", start, end)
	}

	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 'x', Ctrl: true})
	if string(a.Buf.Bytes()) != "a" {
		t.Fatalf("got buffer=%q, want a", a.Buf.Bytes())
	}
	if a.State.Cursor != 1 {
		t.Fatalf("got cursor=%d, want 1", a.State.Cursor)
	}
	got, _ := a.Clip.Read()
	if string(got) != "bc" {
		t.Fatalf("got clipboard=%q, want bc", got)
	}
}

func TestUndoRevertsEditAndQueuesSync(t *testing.T) {
	a := newTestApp(t)
	typeString(a, "ab")
	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 'z', Ctrl: true})
	if string(a.Buf.Bytes()) != "a" {
		t.Fatalf("got buffer=%q after undo, want a", a.Buf.Bytes())
	}
	if !a.Sync.Pending() {
		t.Fatal("expected a pending sync after undo")
	}
}

func TestQuitRequiresDoublePressWhenDirty(t *testing.T) {
	a := newTestApp(t)
	typeString(a, "x")
	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 'q', Ctrl: true})
	if a.Running != true {
		t.Fatal("expected first Ctrl+Q on dirty buffer to not quit")
	}
	if !a.State.ConfirmQuit {
		t.Fatal("expected ConfirmQuit armed after first press")
	}
	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 'q', Ctrl: true})
	if a.Running {
		t.Fatal("expected second Ctrl+Q to quit")
	}
}

func TestQuitImmediateWhenClean(t *testing.T) {
	a := newTestApp(t)
	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 'q', Ctrl: true})
	if a.Running {
		t.Fatal("expected immediate quit on a clean buffer")
	}
}

func TestSaveClearsDirtyFlag(t *testing.T) {
	a := newTestApp(t)
	a.State.FilePath = "/tmp/whatever.txt"
	typeString(a, "hi")
	if !a.State.Dirty {
		t.Fatal("expected dirty after edit")
	}
	a.handleEditorKey(term.KeyEvent{Key: term.KeyRune, Rune: 's', Ctrl: true})
	if a.State.Dirty {
		t.Fatal("expected dirty cleared after save")
	}
}

func TestRegexSearchSetsMatchAndInvalidPatternClears(t *testing.T) {
	a := newTestApp(t)
	typeString(a, "foo bar baz")
	a.State.SetCursor(0)
	a.runRegexSearch("ba.")
	if a.State.SearchMatch == nil {
		t.Fatal("expected a search match")
	}

	a.runRegexSearch("(")
	if a.State.SearchMatch != nil {
		t.Fatal("expected search match cleared on invalid pattern")
	}
}

func TestPaletteFiltersAndRunsSave(t *testing.T) {
	a := newTestApp(t)
	a.State.FilePath = "/tmp/x.txt"
	a.openPalette()
	for _, r := range "Save" {
		a.dispatchOne(term.KeyEvent{Key: term.KeyRune, Rune: r})
	}
	matches := a.filteredPaletteCommands()
	if len(matches) != 1 || matches[0].Name != "Save" {
		t.Fatalf("got matches=%v", matches)
	}
	a.dispatchOne(term.KeyEvent{Key: term.KeyEnter})
	if a.ui.palette.Active {
		t.Fatal("expected palette closed after Enter")
	}
}

func TestJumpStackPushPop(t *testing.T) {
	a := newTestApp(t)
	a.pushJump(5)
	a.pushJump(10)
	got, ok := a.popJump()
	if !ok || got != 10 {
		t.Fatalf("got (%d,%v), want (10,true)", got, ok)
	}
	got, ok = a.popJump()
	if !ok || got != 5 {
		t.Fatalf("got (%d,%v), want (5,true)", got, ok)
	}
	if _, ok := a.popJump(); ok {
		t.Fatal("expected empty jump stack")
	}
}

func TestToggleCommentInsertsAndRemovesPrefix(t *testing.T) {
	a := newTestApp(t)
	a.State.Language = "go"
	typeString(a, "x := 1")
	a.State.SetCursor(0)
	a.toggleComment()
	if string(a.Buf.Bytes())[:3] != "// " {
		t.Fatalf("got %q, want // prefix", a.Buf.Bytes())
	}
	a.toggleComment()
	if string(a.Buf.Bytes()) != "x := 1" {
		t.Fatalf("got %q after un-commenting, want x := 1", a.Buf.Bytes())
	}
}

func TestPerfRingStats(t *testing.T) {
	var p perfRing
	base := time.Unix(0, 0)
	p.record(base)
	p.record(base.Add(16 * time.Millisecond))
	p.record(base.Add(32 * time.Millisecond))
	stats := p.stats()
	if stats.AvgMs <= 0 {
		t.Fatalf("expected positive AvgMs, got %v", stats)
	}
}

func TestDefinitionJumpSameFilePushesJumpStack(t *testing.T) {
	a := newTestApp(t)
	typeString(a, "line one\nline two\nline three")
	a.State.SetCursor(0)
	a.pushJump(0)
	snap := lsp.DefinitionSnapshot{URI: a.LSP.DocumentURI(), Pos: lsp.Position{Line: 2, Character: 0}}
	before := len(a.jumpStack)
	a.applyDefinitionResult(snap)
	if len(a.jumpStack) != before+1 {
		t.Fatalf("expected jump pushed, got stack=%v", a.jumpStack)
	}
}
