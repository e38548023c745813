// Package buffer implements the editor's text storage: a piece table over
// two append-only byte stores, a line index rebuilt after every edit, and an
// undo/redo stack of owned-byte edit records.
package buffer

import "sort"

// source identifies which append-only store a piece's bytes live in.
type source int

const (
	sourceOriginal source = iota
	sourceAdd
)

// piece is a span over one of the buffer's two byte stores.
type piece struct {
	src    source
	start  int
	length int
}

// editKind distinguishes undo/redo record shapes.
type editKind int

const (
	editInsert editKind = iota
	editDelete
)

// editRecord is a single undoable operation. bytes is owned by the record
// and freed (by becoming unreachable) when the record is popped off both
// stacks.
type editRecord struct {
	kind   editKind
	offset int
	bytes  []byte
}

// Buffer is the piece-table text buffer described in spec §3/§4.1.
type Buffer struct {
	original []byte
	add      []byte
	pieces   []piece

	lineStarts []int

	undo []editRecord
	redo []editRecord
}

// New constructs a Buffer over the given initial file contents. The bytes
// are copied into the original store; callers may reuse their slice.
func New(initial []byte) *Buffer {
	b := &Buffer{
		original: append([]byte(nil), initial...),
	}
	if len(b.original) > 0 {
		b.pieces = []piece{{src: sourceOriginal, start: 0, length: len(b.original)}}
	}
	b.rebuildLineStarts()
	return b
}

// Len returns total_len, the sum of all piece lengths.
func (b *Buffer) Len() int {
	total := 0
	for _, p := range b.pieces {
		total += p.length
	}
	return total
}

// Bytes materializes the full buffer contents by walking the piece list.
// This is to_owned_bytes() in spec terms.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.Len())
	for _, p := range b.pieces {
		out = append(out, b.storeFor(p.src)[p.start:p.start+p.length]...)
	}
	return out
}

func (b *Buffer) storeFor(s source) []byte {
	if s == sourceOriginal {
		return b.original
	}
	return b.add
}

// clampOffset restricts offset to [0, total_len].
func (b *Buffer) clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	n := b.Len()
	if offset > n {
		return n
	}
	return offset
}

// pieceIndexAt returns the index of the piece containing byte offset, and
// the offset's position within that piece. If offset == total_len it
// returns (len(pieces), 0) as a sentinel for "append at end".
func (b *Buffer) pieceIndexAt(offset int) (idx int, withinOffset int) {
	pos := 0
	for i, p := range b.pieces {
		if offset < pos+p.length {
			return i, offset - pos
		}
		pos += p.length
	}
	return len(b.pieces), 0
}

// Insert inserts bytes at offset, clamping offset to the buffer's range.
// Empty inserts are no-ops. Pushes an undo record and clears redo.
func (b *Buffer) Insert(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	offset = b.clampOffset(offset)

	owned := append([]byte(nil), data...)
	b.undo = append(b.undo, editRecord{kind: editInsert, offset: offset, bytes: owned})
	b.redo = nil

	b.rawInsert(offset, data)
}

// rawInsert performs the piece-list surgery without touching undo/redo.
func (b *Buffer) rawInsert(offset int, data []byte) {
	addStart := len(b.add)
	b.add = append(b.add, data...)
	newPiece := piece{src: sourceAdd, start: addStart, length: len(data)}

	idx, within := b.pieceIndexAt(offset)
	switch {
	case idx == len(b.pieces):
		b.pieces = append(b.pieces, newPiece)
	case within == 0:
		b.pieces = append(b.pieces[:idx], append([]piece{newPiece}, b.pieces[idx:]...)...)
	default:
		p := b.pieces[idx]
		left := piece{src: p.src, start: p.start, length: within}
		right := piece{src: p.src, start: p.start + within, length: p.length - within}
		replacement := []piece{left, newPiece, right}
		b.pieces = append(b.pieces[:idx], append(replacement, b.pieces[idx+1:]...)...)
	}
	b.coalesce()
	b.rebuildLineStarts()
}

// Delete removes count bytes starting at offset, clamping both to the
// buffer's range. Empty deletes are no-ops. Pushes an undo record carrying
// the deleted bytes and clears redo.
func (b *Buffer) Delete(offset int, count int) {
	offset = b.clampOffset(offset)
	end := b.clampOffset(offset + count)
	if end <= offset {
		return
	}

	deleted := b.sliceBytes(offset, end)
	b.undo = append(b.undo, editRecord{kind: editDelete, offset: offset, bytes: deleted})
	b.redo = nil

	b.rawDelete(offset, end)
}

// sliceBytes returns a fresh copy of buffer bytes in [start, end).
func (b *Buffer) sliceBytes(start, end int) []byte {
	out := make([]byte, 0, end-start)
	pos := 0
	for _, p := range b.pieces {
		pieceStart := pos
		pieceEnd := pos + p.length
		pos = pieceEnd
		lo := max(start, pieceStart)
		hi := min(end, pieceEnd)
		if lo >= hi {
			continue
		}
		store := b.storeFor(p.src)
		out = append(out, store[p.start+(lo-pieceStart):p.start+(hi-pieceStart)]...)
	}
	return out
}

// rawDelete performs the piece-list surgery for [offset, end) without
// touching undo/redo.
func (b *Buffer) rawDelete(offset, end int) {
	var result []piece
	pos := 0
	for _, p := range b.pieces {
		pieceStart := pos
		pieceEnd := pos + p.length
		pos = pieceEnd

		if pieceEnd <= offset || pieceStart >= end {
			result = append(result, p)
			continue
		}
		// Keep the prefix before the cut, if any.
		if pieceStart < offset {
			result = append(result, piece{src: p.src, start: p.start, length: offset - pieceStart})
		}
		// Keep the suffix after the cut, if any.
		if pieceEnd > end {
			skip := end - pieceStart
			result = append(result, piece{src: p.src, start: p.start + skip, length: pieceEnd - end})
		}
	}
	b.pieces = result
	b.coalesce()
	b.rebuildLineStarts()
}

// coalesce merges adjacent pieces from the same source with contiguous
// ranges, and drops empty pieces.
func (b *Buffer) coalesce() {
	out := b.pieces[:0]
	for _, p := range b.pieces {
		if p.length == 0 {
			continue
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.src == p.src && last.start+last.length == p.start {
				last.length += p.length
				continue
			}
		}
		out = append(out, p)
	}
	b.pieces = out
}

// rebuildLineStarts rescans the piece list in order and rebuilds the line
// index in O(total_len).
func (b *Buffer) rebuildLineStarts() {
	starts := []int{0}
	pos := 0
	for _, p := range b.pieces {
		store := b.storeFor(p.src)
		chunk := store[p.start : p.start+p.length]
		for i, c := range chunk {
			if c == '\n' {
				starts = append(starts, pos+i+1)
			}
		}
		pos += p.length
	}
	b.lineStarts = starts
}

// Undo pops the most recent undo record and applies its inverse, pushing
// the inverse onto redo. Returns false if there is nothing to undo.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	rec := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	inverse := b.applyInverse(rec)
	b.redo = append(b.redo, inverse)
	return true
}

// Redo pops the most recent redo record and applies its inverse (i.e. the
// original edit), pushing it back onto undo. It does NOT clear redo.
func (b *Buffer) Redo() bool {
	if len(b.redo) == 0 {
		return false
	}
	rec := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]
	inverse := b.applyInverse(rec)
	b.undo = append(b.undo, inverse)
	return true
}

// applyInverse applies the inverse of rec to the buffer and returns a
// record that would re-apply rec's original effect (i.e. the inverse of
// the inverse), for pushing onto the opposite stack.
func (b *Buffer) applyInverse(rec editRecord) editRecord {
	switch rec.kind {
	case editInsert:
		// Undo an insert: delete what was inserted. The inverse-of-inverse
		// is a delete (re-inserting those bytes is what undoes THIS undo).
		b.rawDelete(rec.offset, rec.offset+len(rec.bytes))
		return editRecord{kind: editDelete, offset: rec.offset, bytes: rec.bytes}
	default: // editDelete
		// Undo a delete: re-insert what was removed. The inverse-of-inverse
		// is an insert (deleting those bytes again is what undoes THIS undo).
		b.rawInsert(rec.offset, rec.bytes)
		return editRecord{kind: editInsert, offset: rec.offset, bytes: rec.bytes}
	}
}

// CanUndo and CanRedo report stack occupancy for UI affordances.
func (b *Buffer) CanUndo() bool { return len(b.undo) > 0 }
func (b *Buffer) CanRedo() bool { return len(b.redo) > 0 }

// LineCount returns the number of lines per spec §8 property 3.
func (b *Buffer) LineCount() int { return len(b.lineStarts) }

// LineStart returns the byte offset of the first byte of line (0-based).
// Out-of-range lines clamp to the nearest valid line.
func (b *Buffer) LineStart(line int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(b.lineStarts) {
		line = len(b.lineStarts) - 1
	}
	return b.lineStarts[line]
}

// LineEnd returns the byte offset one past the last byte of line, not
// counting a trailing newline (i.e. the offset of the newline itself, or
// total_len for the last line).
func (b *Buffer) LineEnd(line int) int {
	if line < 0 {
		line = 0
	}
	if line+1 < len(b.lineStarts) {
		return b.lineStarts[line+1] - 1
	}
	return b.Len()
}

// LineColFromOffset performs the binary search described in spec §4.1.
func (b *Buffer) LineColFromOffset(offset int) (line, col int) {
	offset = b.clampOffset(offset)
	line = sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return line, offset - b.lineStarts[line]
}

// OffsetFromLineCol converts a (line, byte-column) pair back to a byte
// offset, clamping col to the line's width.
func (b *Buffer) OffsetFromLineCol(line, col int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(b.lineStarts) {
		line = len(b.lineStarts) - 1
	}
	start := b.lineStarts[line]
	width := b.LineEnd(line) - start
	if col < 0 {
		col = 0
	}
	if col > width {
		col = width
	}
	return start + col
}
