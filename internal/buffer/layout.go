package buffer

// This file implements component B (Text Layout Helpers): UTF-8 codepoint
// stepping, tab-aware visual-column <-> byte-offset conversion, and word
// motion, all expressed against the piece table's materialized byte view.
// Per spec §4.1, wide-character display width is deliberately approximated
// as 1 column per codepoint.

// isContinuationByte reports whether c is a UTF-8 continuation byte
// (0b10xxxxxx).
func isContinuationByte(c byte) bool {
	return c&0xC0 == 0x80
}

// PrevCodepointStart walks backward from offset over continuation bytes to
// find the start of the codepoint at or before offset. On malformed input
// it stops at the first structurally valid start found (never walks past
// byte 0).
func (b *Buffer) PrevCodepointStart(offset int) int {
	offset = b.clampOffset(offset)
	bs := b.Bytes()
	for offset > 0 && offset <= len(bs) && isContinuationByte(bs[offset-1]) {
		offset--
	}
	if offset > 0 {
		offset--
	}
	return offset
}

// NextCodepointEnd walks forward from offset over continuation bytes to
// find the end of the codepoint starting at offset (i.e. the start of the
// next codepoint, or total_len).
func (b *Buffer) NextCodepointEnd(offset int) int {
	offset = b.clampOffset(offset)
	bs := b.Bytes()
	if offset >= len(bs) {
		return len(bs)
	}
	offset++
	for offset < len(bs) && isContinuationByte(bs[offset]) {
		offset++
	}
	return offset
}

// codepointByteLen returns the UTF-8 encoded length of the codepoint
// starting at bs[i], inferred from the lead byte (no validation beyond
// that; malformed leads are treated as length 1).
func codepointByteLen(lead byte) int {
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

// VisualColumn computes the tab-aware display column of offset within its
// line, per spec §4.1: each tab advances to the next multiple of tabWidth,
// everything else (including multi-byte codepoints) advances by 1.
func (b *Buffer) VisualColumn(offset int, tabWidth int) int {
	offset = b.clampOffset(offset)
	line, _ := b.LineColFromOffset(offset)
	start := b.lineStarts[line]
	bs := b.Bytes()

	col := 0
	i := start
	for i < offset && i < len(bs) {
		if bs[i] == '\t' {
			col += tabWidth - (col % tabWidth)
			i++
			continue
		}
		i += codepointByteLen(bs[i])
		col++
	}
	return col
}

// OffsetFromLineVisualCol is the inverse of VisualColumn: it scans line
// forward accumulating visual columns and stops at (or just before, for a
// column that lands mid-tab) the target column.
func (b *Buffer) OffsetFromLineVisualCol(line, targetCol int, tabWidth int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(b.lineStarts) {
		line = len(b.lineStarts) - 1
	}
	start := b.lineStarts[line]
	end := b.LineEnd(line)
	bs := b.Bytes()

	col := 0
	i := start
	for i < end {
		if col >= targetCol {
			break
		}
		if bs[i] == '\t' {
			col += tabWidth - (col % tabWidth)
			i++
			continue
		}
		i += codepointByteLen(bs[i])
		col++
	}
	return i
}

// isWordByte reports whether c is part of a "word" for move-by-word
// purposes: ASCII alphanumeric or underscore. Matches spec §4.1.
func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

// MoveWordLeft skips non-word bytes then word bytes, moving backward from
// offset, and returns the resulting offset (always a codepoint start).
func (b *Buffer) MoveWordLeft(offset int) int {
	offset = b.clampOffset(offset)
	bs := b.Bytes()
	i := offset
	for i > 0 && !isWordByte(bs[i-1]) {
		i--
	}
	for i > 0 && isWordByte(bs[i-1]) {
		i--
	}
	return i
}

// MoveWordRight skips non-word bytes then word bytes, moving forward from
// offset, and returns the resulting offset.
func (b *Buffer) MoveWordRight(offset int) int {
	offset = b.clampOffset(offset)
	bs := b.Bytes()
	i := offset
	n := len(bs)
	for i < n && !isWordByte(bs[i]) {
		i++
	}
	for i < n && isWordByte(bs[i]) {
		i++
	}
	return i
}
