// Package editor holds component C (editor state: cursor, selection,
// search, scroll) and component D (the pure keymap → Command mapping).
package editor

// SelectionMode distinguishes a linear (character range) selection from a
// rectangular block selection.
type SelectionMode int

const (
	SelectionLinear SelectionMode = iota
	SelectionBlock
)

// SearchMatch is a half-open byte range [Start, End) highlighted by the
// last successful search.
type SearchMatch struct {
	Start, End int
}

// State is the Editor State described in spec §3. It owns nothing about
// the buffer's bytes; it only tracks cursor/selection/viewport positions
// into it.
type State struct {
	Cursor int // byte offset, always on a codepoint start

	SelectionAnchor int // -1 means no anchor set
	SelectionMode   SelectionMode

	SearchMatch   *SearchMatch
	ScrollY       int
	Dirty         bool
	ConfirmQuit   bool
	PreferredCol  *int // sticky visual column for vertical motion
	Language      string
	FilePath      string
}

// New returns a fresh editor state with no selection.
func New() *State {
	return &State{SelectionAnchor: -1}
}

// HasSelection reports whether an active selection exists (anchor != cursor).
func (s *State) HasSelection() bool {
	return s.SelectionAnchor >= 0 && s.SelectionAnchor != s.Cursor
}

// SelectionRange returns the selection as an ordered [start, end) byte
// range. It is only meaningful when HasSelection is true.
func (s *State) SelectionRange() (start, end int) {
	if s.SelectionAnchor <= s.Cursor {
		return s.SelectionAnchor, s.Cursor
	}
	return s.Cursor, s.SelectionAnchor
}

// StartSelection anchors a selection at the current cursor, in the given
// mode, if one isn't already active.
func (s *State) StartSelection(mode SelectionMode) {
	if s.SelectionAnchor < 0 {
		s.SelectionAnchor = s.Cursor
	}
	s.SelectionMode = mode
}

// ClearSelection drops any active selection.
func (s *State) ClearSelection() {
	s.SelectionAnchor = -1
}

// SetCursor moves the cursor and clears the sticky preferred column unless
// the caller is performing vertical motion (which manages PreferredCol
// itself).
func (s *State) SetCursor(offset int) {
	s.Cursor = offset
	s.PreferredCol = nil
}

// MoveCursorKeepingColumn moves the cursor for vertical motion without
// resetting PreferredCol, so repeated Up/Down presses track a sticky
// column across short lines.
func (s *State) MoveCursorKeepingColumn(offset int) {
	s.Cursor = offset
}
