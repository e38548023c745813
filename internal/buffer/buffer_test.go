package buffer

import (
	"bytes"
	"testing"
)

func TestInsertDeleteRoundTrip(t *testing.T) {
	b := New([]byte("hello"))
	b.Insert(5, []byte(","))
	if got := string(b.Bytes()); got != "hello," {
		t.Fatalf("after insert: got %q", got)
	}
	b.Insert(6, []byte(" world"))
	if got := string(b.Bytes()); got != "hello, world" {
		t.Fatalf("after second insert: got %q", got)
	}
	if !b.Undo() {
		t.Fatal("expected undo to succeed")
	}
	if got := string(b.Bytes()); got != "hello," {
		t.Fatalf("after first undo: got %q", got)
	}
	if !b.Undo() {
		t.Fatal("expected second undo to succeed")
	}
	if got := string(b.Bytes()); got != "hello" {
		t.Fatalf("after second undo: got %q", got)
	}
	if b.Undo() {
		t.Fatal("undo should be empty")
	}
}

func TestUndoRedoInverse(t *testing.T) {
	b := New([]byte("abc"))
	b.Insert(3, []byte("def"))
	b.Delete(0, 1)
	before := b.Bytes()

	if !b.Undo() {
		t.Fatal("undo failed")
	}
	if !b.Redo() {
		t.Fatal("redo failed")
	}
	after := b.Bytes()
	if !bytes.Equal(before, after) {
		t.Fatalf("undo;redo not identity: before=%q after=%q", before, after)
	}

	b.Insert(0, []byte("x"))
	if b.Redo() {
		t.Fatal("redo should be unavailable after a new edit")
	}
}

func TestLineIndex(t *testing.T) {
	b := New([]byte("a\nb\n"))
	if got, want := b.LineCount(), 3; got != want {
		t.Fatalf("LineCount() = %d, want %d", got, want)
	}
	goto2 := b.OffsetFromLineCol(1, 0)
	if goto2 != 2 {
		t.Fatalf("offset of line 1 col 0 = %d, want 2", goto2)
	}
	b.Insert(goto2, []byte("X"))
	if got := string(b.Bytes()); got != "a\nXb\n" {
		t.Fatalf("got %q", got)
	}
	if got, want := b.LineCount(), 3; got != want {
		t.Fatalf("LineCount() after edit = %d, want %d", got, want)
	}
	if got, want := b.LineStart(1), 2; got != want {
		t.Fatalf("LineStart(1) = %d, want %d", got, want)
	}
	if got, want := b.LineStart(2), 5; got != want {
		t.Fatalf("LineStart(2) = %d, want %d", got, want)
	}
}

func TestUTF8Navigation(t *testing.T) {
	b := New([]byte("a\xd1\x84b")) // a + CYRILLIC SMALL LETTER FE (2 bytes) + b
	if got := b.NextCodepointEnd(1); got != 3 {
		t.Fatalf("NextCodepointEnd(1) = %d, want 3", got)
	}
	if got := b.PrevCodepointStart(3); got != 1 {
		t.Fatalf("PrevCodepointStart(3) = %d, want 1", got)
	}
	if got := b.VisualColumn(3, 8); got != 2 {
		t.Fatalf("VisualColumn(3,8) = %d, want 2", got)
	}
}

func TestVisualColumnRoundTrip(t *testing.T) {
	b := New([]byte("ab\tcd"))
	for _, off := range []int{0, 1, 2, 4, 5} {
		col := b.VisualColumn(off, 4)
		back := b.OffsetFromLineVisualCol(0, col, 4)
		if back != off {
			t.Fatalf("round trip for offset %d: col=%d back=%d", off, col, back)
		}
	}
}

func TestDeleteClampsPastEnd(t *testing.T) {
	b := New([]byte("hi"))
	b.Delete(1, 100)
	if got := string(b.Bytes()); got != "h" {
		t.Fatalf("got %q, want %q", got, "h")
	}
}

func TestEmptyEditsAreNoops(t *testing.T) {
	b := New([]byte("hi"))
	b.Insert(1, nil)
	b.Delete(1, 0)
	if got := string(b.Bytes()); got != "hi" {
		t.Fatalf("got %q", got)
	}
	if b.CanUndo() {
		t.Fatal("empty edits should not push undo records")
	}
}

func TestMoveWord(t *testing.T) {
	b := New([]byte("foo   bar_baz qux"))
	if got := b.MoveWordRight(0); got != 3 {
		t.Fatalf("MoveWordRight(0) = %d, want 3", got)
	}
	if got := b.MoveWordRight(3); got != 13 {
		t.Fatalf("MoveWordRight(3) = %d, want 13", got)
	}
	if got := b.MoveWordLeft(13); got != 6 {
		t.Fatalf("MoveWordLeft(13) = %d, want 6", got)
	}
}

func TestCoalescesAdjacentPieces(t *testing.T) {
	b := New(nil)
	b.Insert(0, []byte("a"))
	b.Insert(1, []byte("b"))
	b.Insert(2, []byte("c"))
	if len(b.pieces) != 1 {
		t.Fatalf("expected coalesced single piece, got %d pieces", len(b.pieces))
	}
	if got := string(b.Bytes()); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
