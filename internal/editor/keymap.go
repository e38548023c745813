package editor

import "zicro/internal/term"

// Command enumerates every action the keymap can resolve a KeyEvent to.
// It is a closed, pure enumeration per spec §4.2; the app layer dispatches
// on it and owns all side effects.
type Command int

const (
	CmdNone Command = iota

	CmdSave
	CmdQuit
	CmdCopy
	CmdCut
	CmdPaste
	CmdGotoLine
	CmdRegexSearch
	CmdToggleComment
	CmdShowPalette

	CmdMoveLeft
	CmdMoveRight
	CmdMoveUp
	CmdMoveDown
	CmdMoveHome
	CmdMoveEnd
	CmdPageUp
	CmdPageDown

	CmdSelectLeft
	CmdSelectRight
	CmdSelectUp
	CmdSelectDown
	CmdSelectHome
	CmdSelectEnd
	CmdSelectPageUp
	CmdSelectPageDown

	CmdBlockSelectLeft
	CmdBlockSelectRight
	CmdBlockSelectUp
	CmdBlockSelectDown

	CmdWordLeft
	CmdWordRight

	CmdBackspace
	CmdDeleteChar
	CmdInsertNewline

	CmdUndo
	CmdRedo

	CmdLspCompletion
	CmdLspHover
	CmdLspDefinition
	CmdLspReferences
	CmdLspJumpBack

	// CmdRestartLSP is a supplement beyond spec.md's literal Command list
	// (SPEC_FULL.md §5): manually restart a dead language server.
	CmdRestartLSP
)

// MapEditor is the pure function `map_editor(KeyEvent) -> Option<Command>`
// from spec §4.2. Events it doesn't recognize return CmdNone, and the app
// falls through to text/char/tab handling.
func MapEditor(ev term.KeyEvent) Command {
	if ev.Ctrl {
		switch ev.Rune {
		case 's', 'S':
			return CmdSave
		case 'q', 'Q':
			return CmdQuit
		case 'x', 'X':
			return CmdCut
		case 'c', 'C':
			return CmdCopy
		case 'v', 'V':
			return CmdPaste
		case 'p', 'P':
			return CmdShowPalette
		case 'f', 'F':
			return CmdRegexSearch
		case 'g', 'G':
			return CmdGotoLine
		case 'n', 'N':
			return CmdLspCompletion
		case 't', 'T':
			return CmdLspHover
		case 'd', 'D':
			return CmdLspDefinition
		case 'r', 'R':
			return CmdLspReferences
		case 'b', 'B':
			return CmdLspJumpBack
		case 'z', 'Z':
			return CmdUndo
		case 'y', 'Y':
			return CmdRedo
		case '/':
			return CmdToggleComment
		}
	}

	if ev.Alt {
		switch ev.Key {
		case term.KeyArrowLeft:
			return CmdBlockSelectLeft
		case term.KeyArrowRight:
			return CmdBlockSelectRight
		case term.KeyArrowUp:
			return CmdBlockSelectUp
		case term.KeyArrowDown:
			return CmdBlockSelectDown
		}
		if ev.Ctrl {
			switch ev.Key {
			case term.KeyArrowLeft:
				return CmdWordLeft
			case term.KeyArrowRight:
				return CmdWordRight
			}
		}
	}

	if ev.Ctrl {
		switch ev.Key {
		case term.KeyArrowLeft:
			return CmdWordLeft
		case term.KeyArrowRight:
			return CmdWordRight
		}
	}

	if ev.Shift {
		switch ev.Key {
		case term.KeyArrowLeft:
			return CmdSelectLeft
		case term.KeyArrowRight:
			return CmdSelectRight
		case term.KeyArrowUp:
			return CmdSelectUp
		case term.KeyArrowDown:
			return CmdSelectDown
		case term.KeyHome:
			return CmdSelectHome
		case term.KeyEnd:
			return CmdSelectEnd
		case term.KeyPageUp:
			return CmdSelectPageUp
		case term.KeyPageDown:
			return CmdSelectPageDown
		}
	}

	switch ev.Key {
	case term.KeyArrowLeft:
		return CmdMoveLeft
	case term.KeyArrowRight:
		return CmdMoveRight
	case term.KeyArrowUp:
		return CmdMoveUp
	case term.KeyArrowDown:
		return CmdMoveDown
	case term.KeyHome:
		return CmdMoveHome
	case term.KeyEnd:
		return CmdMoveEnd
	case term.KeyPageUp:
		return CmdPageUp
	case term.KeyPageDown:
		return CmdPageDown
	case term.KeyBackspace:
		return CmdBackspace
	case term.KeyDelete:
		return CmdDeleteChar
	case term.KeyEnter:
		return CmdInsertNewline
	}

	return CmdNone
}
