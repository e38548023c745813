package sync

import (
	"testing"
	"time"

	"zicro/internal/buffer"
	"zicro/internal/lsp"
)

type fakeClient struct {
	fullTexts     []string
	incremental   []lsp.Range
	incText       []string
	incrementalOK bool
	savedCount    int
}

func (f *fakeClient) DidChange(text string) { f.fullTexts = append(f.fullTexts, text) }
func (f *fakeClient) DidChangeIncremental(rng lsp.Range, text string) {
	f.incremental = append(f.incremental, rng)
	f.incText = append(f.incText, text)
}
func (f *fakeClient) DidSave() error                { f.savedCount++; return nil }
func (f *fakeClient) SupportsIncrementalSync() bool { return f.incrementalOK }

func TestLSPPositionFromOffsetASCII(t *testing.T) {
	buf := buffer.New([]byte("hello\nworld"))
	pos := LSPPositionFromOffset(buf, 8)
	if pos.Line != 1 || pos.Character != 2 {
		t.Fatalf("got %+v, want line=1 char=2", pos)
	}
}

func TestLSPPositionFromOffsetSupplementary(t *testing.T) {
	// U+1F600 (4-byte UTF-8, 2 UTF-16 code units) followed by 'x'.
	buf := buffer.New([]byte("\xf0\x9f\x98\x80x"))
	pos := LSPPositionFromOffset(buf, 4) // offset of 'x'
	if pos.Character != 2 {
		t.Fatalf("got character=%d, want 2", pos.Character)
	}
}

func TestFlushIncrementalWhenSupported(t *testing.T) {
	buf := buffer.New([]byte("abc"))
	fc := &fakeClient{incrementalOK: true}
	e := New(fc, 10*time.Millisecond)

	e.QueueIncrementalChange(buf, 1, 2, []byte("X"))
	buf.Delete(1, 1)
	buf.Insert(1, []byte("X"))
	e.QueueDidChange(time.Now())

	if !e.FlushPendingDidChange(buf, time.Now(), true) {
		t.Fatal("expected flush to report work done")
	}
	if len(fc.incremental) != 1 || len(fc.fullTexts) != 0 {
		t.Fatalf("expected one incremental change, got incremental=%v full=%v", fc.incremental, fc.fullTexts)
	}
}

func TestFlushFullWhenForced(t *testing.T) {
	buf := buffer.New([]byte("abc"))
	fc := &fakeClient{incrementalOK: true}
	e := New(fc, 10*time.Millisecond)

	e.QueueIncrementalChange(buf, 0, 0, []byte("z"))
	e.ForceFullSync()
	e.QueueDidChange(time.Now())

	if !e.FlushPendingDidChange(buf, time.Now(), true) {
		t.Fatal("expected flush to report work done")
	}
	if len(fc.fullTexts) != 1 || fc.fullTexts[0] != "abc" {
		t.Fatalf("expected one full sync of current buffer, got %v", fc.fullTexts)
	}
	if len(fc.incremental) != 0 {
		t.Fatalf("expected no incremental changes when forced full, got %v", fc.incremental)
	}
}

func TestFlushRespectsDebounceUnlessForced(t *testing.T) {
	buf := buffer.New([]byte("abc"))
	fc := &fakeClient{incrementalOK: true}
	e := New(fc, time.Hour)
	e.QueueDidChange(time.Now())

	if e.FlushPendingDidChange(buf, time.Now(), false) {
		t.Fatal("expected flush to be deferred by debounce")
	}
	if !e.FlushPendingDidChange(buf, time.Now(), true) {
		t.Fatal("expected forced flush to proceed")
	}
}

func TestFlushNoopWhenNothingPending(t *testing.T) {
	buf := buffer.New([]byte("abc"))
	fc := &fakeClient{incrementalOK: true}
	e := New(fc, time.Millisecond)
	if e.FlushPendingDidChange(buf, time.Now(), true) {
		t.Fatal("expected no-op flush to report false")
	}
}

func TestAutosaveWritesAndSaves(t *testing.T) {
	buf := buffer.New([]byte("abc"))
	fc := &fakeClient{incrementalOK: true}
	e := New(fc, time.Millisecond)
	var written []byte
	e.writeFile = func(path string, data []byte) error {
		written = append([]byte(nil), data...)
		return nil
	}
	e.SetAutosave(true, "/tmp/whatever")
	e.QueueDidChange(time.Now())
	e.FlushPendingDidChange(buf, time.Now(), true)

	if string(written) != "abc" {
		t.Fatalf("got written=%q", written)
	}
	if fc.savedCount != 1 {
		t.Fatalf("expected didSave to fire once, got %d", fc.savedCount)
	}
}
