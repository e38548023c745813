package app

import (
	"time"

	"zicro/internal/editor"
	"zicro/internal/term"
)

// handleEditorKey implements the editor-mode branch of spec §4.6 step 1:
// resolve the key via the pure keymap, dispatch on Command, and fall
// through to plain character insertion for CmdNone.
func (a *App) handleEditorKey(ev term.KeyEvent) {
	cmd := editor.MapEditor(ev)
	if cmd != editor.CmdQuit {
		a.State.ConfirmQuit = false
	}
	if cmd == editor.CmdNone {
		if ev.Key == term.KeyRune && !ev.Ctrl {
			a.insertRune(ev.Rune)
		}
		return
	}
	a.dispatchCommand(cmd)
}

func (a *App) dispatchCommand(cmd editor.Command) {
	switch cmd {
	case editor.CmdSave:
		a.save()
	case editor.CmdQuit:
		a.handleQuit()

	case editor.CmdCopy:
		a.copySelection()
	case editor.CmdCut:
		a.cutSelection()
	case editor.CmdPaste:
		a.paste()

	case editor.CmdGotoLine:
		a.openPrompt(promptGotoLine)
	case editor.CmdRegexSearch:
		a.openPrompt(promptRegexSearch)
	case editor.CmdToggleComment:
		a.toggleComment()
	case editor.CmdShowPalette:
		a.openPalette()

	case editor.CmdMoveLeft:
		a.State.ClearSelection()
		a.State.SetCursor(a.Buf.PrevCodepointStart(a.State.Cursor))
	case editor.CmdMoveRight:
		a.State.ClearSelection()
		a.State.SetCursor(a.Buf.NextCodepointEnd(a.State.Cursor))
	case editor.CmdMoveUp:
		a.State.ClearSelection()
		a.moveVertical(-1)
	case editor.CmdMoveDown:
		a.State.ClearSelection()
		a.moveVertical(1)
	case editor.CmdMoveHome:
		a.State.ClearSelection()
		a.moveHome()
	case editor.CmdMoveEnd:
		a.State.ClearSelection()
		a.moveEnd()
	case editor.CmdPageUp:
		a.State.ClearSelection()
		a.moveVertical(-a.pageSize())
	case editor.CmdPageDown:
		a.State.ClearSelection()
		a.moveVertical(a.pageSize())

	case editor.CmdSelectLeft:
		a.State.StartSelection(editor.SelectionLinear)
		a.State.SetCursor(a.Buf.PrevCodepointStart(a.State.Cursor))
	case editor.CmdSelectRight:
		a.State.StartSelection(editor.SelectionLinear)
		a.State.SetCursor(a.Buf.NextCodepointEnd(a.State.Cursor))
	case editor.CmdSelectUp:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveVertical(-1)
	case editor.CmdSelectDown:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveVertical(1)
	case editor.CmdSelectHome:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveHome()
	case editor.CmdSelectEnd:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveEnd()
	case editor.CmdSelectPageUp:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveVertical(-a.pageSize())
	case editor.CmdSelectPageDown:
		a.State.StartSelection(editor.SelectionLinear)
		a.moveVertical(a.pageSize())

	case editor.CmdBlockSelectLeft:
		a.State.StartSelection(editor.SelectionBlock)
		a.State.SetCursor(a.Buf.PrevCodepointStart(a.State.Cursor))
	case editor.CmdBlockSelectRight:
		a.State.StartSelection(editor.SelectionBlock)
		a.State.SetCursor(a.Buf.NextCodepointEnd(a.State.Cursor))
	case editor.CmdBlockSelectUp:
		a.State.StartSelection(editor.SelectionBlock)
		a.moveVertical(-1)
	case editor.CmdBlockSelectDown:
		a.State.StartSelection(editor.SelectionBlock)
		a.moveVertical(1)

	case editor.CmdWordLeft:
		a.State.ClearSelection()
		a.State.SetCursor(a.Buf.MoveWordLeft(a.State.Cursor))
	case editor.CmdWordRight:
		a.State.ClearSelection()
		a.State.SetCursor(a.Buf.MoveWordRight(a.State.Cursor))

	case editor.CmdBackspace:
		a.backspace()
	case editor.CmdDeleteChar:
		a.deleteForward()
	case editor.CmdInsertNewline:
		a.insertBytes([]byte("\n"))

	case editor.CmdUndo:
		a.undo()
	case editor.CmdRedo:
		a.redo()

	case editor.CmdLspCompletion:
		a.requestCompletion(false)
	case editor.CmdLspHover:
		a.requestHover(false)
	case editor.CmdLspDefinition:
		a.requestDefinition()
	case editor.CmdLspReferences:
		a.requestReferences()
	case editor.CmdLspJumpBack:
		a.jumpBack()
	case editor.CmdRestartLSP:
		a.restartLSP()
	}
}

// handleQuit implements spec §4.2/§6.6: quitting a dirty buffer requires a
// second Ctrl+Q press; any other key clears the pending confirmation.
func (a *App) handleQuit() {
	if !a.State.Dirty {
		a.Running = false
		return
	}
	if a.State.ConfirmQuit {
		a.Running = false
		return
	}
	a.State.ConfirmQuit = true
	a.ui.pushStatus("unsaved changes, press Ctrl+Q again to quit")
}

// tabWidth reads the configured tab width, defaulting defensively.
func (a *App) tabWidth() int {
	if a.Cfg.TabWidth <= 0 {
		return 4
	}
	return a.Cfg.TabWidth
}

func (a *App) pageSize() int { return 20 }

func (a *App) moveHome() {
	line, _ := a.Buf.LineColFromOffset(a.State.Cursor)
	a.State.SetCursor(a.Buf.LineStart(line))
}

func (a *App) moveEnd() {
	line, _ := a.Buf.LineColFromOffset(a.State.Cursor)
	a.State.SetCursor(a.Buf.LineEnd(line))
}

// moveVertical implements sticky-column vertical motion (spec §3's
// preferred_visual_col).
func (a *App) moveVertical(delta int) {
	line, _ := a.Buf.LineColFromOffset(a.State.Cursor)
	col := a.Buf.VisualColumn(a.State.Cursor, a.tabWidth())
	if a.State.PreferredCol != nil {
		col = *a.State.PreferredCol
	}
	target := line + delta
	if target < 0 {
		target = 0
	}
	if target >= a.Buf.LineCount() {
		target = a.Buf.LineCount() - 1
	}
	offset := a.Buf.OffsetFromLineVisualCol(target, col, a.tabWidth())
	a.State.MoveCursorKeepingColumn(offset)
	a.State.PreferredCol = &col
}

// insertRune implements plain character insertion, replacing any active
// selection first (spec §4.1/§4.5).
func (a *App) insertRune(r rune) {
	a.insertBytes([]byte(string(r)))
}

func (a *App) insertBytes(data []byte) {
	if a.State.HasSelection() {
		a.deleteSelection()
	}
	offset := a.State.Cursor
	a.Sync.QueueIncrementalChange(a.Buf, offset, offset, data)
	a.Buf.Insert(offset, data)
	a.State.SetCursor(offset + len(data))
	a.State.Dirty = true
	a.Sync.QueueDidChange(time.Now())
	a.armAutoRequestsAfterEdit(data)
}

func (a *App) backspace() {
	if a.State.HasSelection() {
		a.deleteSelection()
		return
	}
	start := a.Buf.PrevCodepointStart(a.State.Cursor)
	if start == a.State.Cursor {
		return
	}
	a.deleteRange(start, a.State.Cursor)
	a.State.SetCursor(start)
}

func (a *App) deleteForward() {
	if a.State.HasSelection() {
		a.deleteSelection()
		return
	}
	end := a.Buf.NextCodepointEnd(a.State.Cursor)
	if end == a.State.Cursor {
		return
	}
	a.deleteRange(a.State.Cursor, end)
}

// deleteSelection removes the active linear selection and collapses the
// cursor to its start. Block selections force a full sync (spec §4.5)
// since they may reshape multiple disjoint lines.
func (a *App) deleteSelection() {
	start, end := a.State.SelectionRange()
	if a.State.SelectionMode == editor.SelectionBlock {
		a.Sync.ForceFullSync()
	}
	a.deleteRange(start, end)
	a.State.ClearSelection()
	a.State.SetCursor(start)
}

func (a *App) deleteRange(start, end int) {
	a.Sync.QueueIncrementalChange(a.Buf, start, end, nil)
	a.Buf.Delete(start, end-start)
	a.State.Dirty = true
	a.Sync.QueueDidChange(time.Now())
}

func (a *App) undo() {
	if a.Buf.Undo() {
		a.Sync.ForceFullSync()
		a.Sync.QueueDidChange(time.Now())
		a.State.Dirty = true
		a.clampCursor()
	}
}

func (a *App) redo() {
	if a.Buf.Redo() {
		a.Sync.ForceFullSync()
		a.Sync.QueueDidChange(time.Now())
		a.State.Dirty = true
		a.clampCursor()
	}
}

func (a *App) clampCursor() {
	if a.State.Cursor > a.Buf.Len() {
		a.State.SetCursor(a.Buf.Len())
	}
}

// toggleComment implements the Ctrl+/ binding (spec §4.2): forces a full
// sync since it may touch multiple disjoint lines.
func (a *App) toggleComment() {
	a.Sync.ForceFullSync()
	line, _ := a.Buf.LineColFromOffset(a.State.Cursor)
	startLine, endLine := line, line
	if a.State.HasSelection() {
		s, e := a.State.SelectionRange()
		startLine, _ = a.Buf.LineColFromOffset(s)
		endLine, _ = a.Buf.LineColFromOffset(e)
	}
	prefix := commentPrefix(a.State.Language)
	if prefix == "" {
		return
	}
	for l := startLine; l <= endLine; l++ {
		start := a.Buf.LineStart(l)
		end := a.Buf.LineEnd(l)
		lineBytes := a.Buf.Bytes()[start:end]
		if idx := indexOf(lineBytes, prefix); idx >= 0 && onlyWhitespaceBefore(lineBytes, idx) {
			n := len(prefix) + trailingSpaceAfterPrefix(lineBytes[idx:], prefix)
			a.Buf.Delete(start+idx, n)
		} else {
			a.Buf.Insert(start, []byte(prefix+" "))
		}
	}
	a.State.Dirty = true
	a.Sync.QueueDidChange(time.Now())
}

func commentPrefix(language string) string {
	switch language {
	case "python", "bash":
		return "#"
	case "":
		return ""
	default:
		return "//"
	}
}

func onlyWhitespaceBefore(line []byte, idx int) bool {
	for i := 0; i < idx; i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return false
		}
	}
	return true
}

func trailingSpaceAfterPrefix(line []byte, prefix string) int {
	idx := indexOf(line, prefix)
	if idx < 0 {
		return 0
	}
	pos := idx + len(prefix)
	if pos < len(line) && line[pos] == ' ' {
		return 1
	}
	return 0
}

func indexOf(line []byte, prefix string) int {
	for i := 0; i+len(prefix) <= len(line); i++ {
		if string(line[i:i+len(prefix)]) == prefix {
			return i
		}
	}
	return -1
}
