// Package sync implements component G, the sync engine: it turns ordered
// byte-range edits into LSP positions computed against the pre-edit
// buffer, queues them, and flushes them as incremental or full
// didChange notifications on a debounce.
package sync

import (
	"time"

	"zicro/internal/buffer"
	"zicro/internal/lsp"
)

// PendingChange is one queued incremental edit, already translated into
// LSP positions (spec §3).
type PendingChange struct {
	Start lsp.Position
	End   lsp.Position
	Text  []byte
}

// Client is the subset of *lsp.Client the engine needs; defined as an
// interface so tests can fake it.
type Client interface {
	DidChange(fullText string)
	DidChangeIncremental(rng lsp.Range, text string)
	DidSave() error
	SupportsIncrementalSync() bool
}

// Engine is the Sync Engine State described in spec §3/§4.5.
type Engine struct {
	client Client

	pendingSync     bool
	nextFlushAt     time.Time
	forceFullSync   bool
	changes         []PendingChange

	debounce time.Duration

	autosave     bool
	autosavePath string
	writeFile    func(path string, data []byte) error
}

// New constructs an Engine bound to client, flushing on the given
// debounce interval (spec §6: lsp.change_debounce_ms, 1..1000, default 32).
func New(client Client, debounce time.Duration) *Engine {
	return &Engine{
		client:    client,
		debounce:  debounce,
		writeFile: defaultWriteFile,
	}
}

// SetAutosave configures spec §4.5's "write the file and send didSave"
// post-flush behavior.
func (e *Engine) SetAutosave(enabled bool, path string) {
	e.autosave = enabled
	e.autosavePath = path
}

// ForceFullSync arms force_full_lsp_sync: undo, redo, block-selection
// edits, paste-into-block-selection, comment-toggle, and clipboard-driven
// deletion must call this (spec §4.5).
func (e *Engine) ForceFullSync() {
	e.forceFullSync = true
}

// QueueIncrementalChange records a primitive edit as an LSP position
// range, computed against buf's state *before* the caller mutates it
// (spec §4.5). Callers must call this before mutating buf.
func (e *Engine) QueueIncrementalChange(buf *buffer.Buffer, startByte, endByte int, text []byte) {
	start := LSPPositionFromOffset(buf, startByte)
	end := LSPPositionFromOffset(buf, endByte)
	e.changes = append(e.changes, PendingChange{Start: start, End: end, Text: append([]byte(nil), text...)})
}

// QueueDidChange marks a pending flush and (re)schedules its deadline
// (spec §4.5).
func (e *Engine) QueueDidChange(now time.Time) {
	e.pendingSync = true
	e.nextFlushAt = now.Add(e.debounce)
}

// LSPPositionFromOffset implements spec §4.5's lsp_position_from_offset:
// align to a codepoint start, find the line, and count UTF-16 code units
// from the line start up to the aligned offset.
func LSPPositionFromOffset(buf *buffer.Buffer, offset int) lsp.Position {
	bs := buf.Bytes()
	aligned := clampToNextBoundary(buf, offset)
	for aligned > 0 && aligned < len(bs) && bs[aligned]&0xC0 == 0x80 {
		aligned--
	}
	line, _ := buf.LineColFromOffset(aligned)
	lineStart := buf.LineStart(line)

	character := 0
	i := lineStart
	for i < aligned && i < len(bs) {
		length := utf8LeadLength(bs[i])
		if length <= 3 {
			character++
		} else {
			character += 2
		}
		i += length
	}
	return lsp.Position{Line: line, Character: character}
}

// clampToNextBoundary clamps offset into [0, buf.Len()]; it does not move
// it onto a codepoint start. LSPPositionFromOffset walks a mid-sequence
// offset back to its codepoint start itself.
func clampToNextBoundary(buf *buffer.Buffer, offset int) int {
	n := buf.Len()
	if offset < 0 {
		return 0
	}
	if offset > n {
		return n
	}
	return offset
}

func utf8LeadLength(lead byte) int {
	switch {
	case lead&0x80 == 0x00:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// FlushPendingDidChange implements spec §4.5. force bypasses the
// debounce deadline. Returns false if there was nothing to flush.
func (e *Engine) FlushPendingDidChange(buf *buffer.Buffer, now time.Time, force bool) bool {
	if !e.pendingSync {
		return false
	}
	if !force && now.Before(e.nextFlushAt) {
		return false
	}

	incremental := !e.forceFullSync && len(e.changes) > 0 && e.client.SupportsIncrementalSync()
	if incremental {
		for _, ch := range e.changes {
			e.client.DidChangeIncremental(lsp.Range{Start: ch.Start, End: ch.End}, string(ch.Text))
		}
	} else {
		e.client.DidChange(string(buf.Bytes()))
	}

	e.changes = nil
	e.forceFullSync = false
	e.pendingSync = false

	if e.autosave && e.autosavePath != "" {
		if err := e.writeFile(e.autosavePath, buf.Bytes()); err == nil {
			_ = e.client.DidSave()
		}
	}
	return true
}

// Pending reports whether a flush is still owed (used by the event loop
// to compute its sleep deadline, spec §4.6).
func (e *Engine) Pending() bool { return e.pendingSync }

// NextFlushAt exposes the scheduled deadline.
func (e *Engine) NextFlushAt() time.Time { return e.nextFlushAt }
