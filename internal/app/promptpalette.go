package app

import (
	"strconv"

	"zicro/internal/term"
)

// openPrompt implements Ctrl+G / Ctrl+F (spec §4.2): open the single-line
// prompt in the given mode.
func (a *App) openPrompt(mode promptMode) {
	a.ui.prompt = promptState{Active: true, Mode: mode}
}

func (a *App) openPalette() {
	a.ui.palette = paletteState{Active: true}
}

// handlePromptKey edits the prompt query and, on Enter, applies it
// (goto-line or regex-search); Esc cancels.
func (a *App) handlePromptKey(ev term.KeyEvent) {
	switch ev.Key {
	case term.KeyEscape:
		a.ui.prompt = promptState{}
		return
	case term.KeyBackspace:
		if n := len(a.ui.prompt.Query); n > 0 {
			a.ui.prompt.Query = a.ui.prompt.Query[:n-1]
		}
		return
	case term.KeyEnter:
		a.submitPrompt()
		return
	}
	if ev.Key == term.KeyRune && !ev.Ctrl {
		a.ui.prompt.Query = append(a.ui.prompt.Query, ev.Rune)
	}
}

func (a *App) submitPrompt() {
	query := string(a.ui.prompt.Query)
	mode := a.ui.prompt.Mode
	a.ui.prompt = promptState{}

	switch mode {
	case promptGotoLine:
		n, err := strconv.Atoi(query)
		if err != nil || n < 1 {
			a.ui.pushStatus("goto-line: invalid line number")
			return
		}
		line := n - 1
		if line >= a.Buf.LineCount() {
			line = a.Buf.LineCount() - 1
		}
		a.State.ClearSelection()
		a.State.SetCursor(a.Buf.LineStart(line))
	case promptRegexSearch:
		a.runRegexSearch(query)
	}
}

// handlePaletteKey implements the command palette (spec §3): a fuzzy-free
// substring filter over named commands, Up/Down to navigate, Enter to run.
func (a *App) handlePaletteKey(ev term.KeyEvent) {
	switch ev.Key {
	case term.KeyEscape:
		a.ui.palette = paletteState{}
		return
	case term.KeyBackspace:
		if n := len(a.ui.palette.Query); n > 0 {
			a.ui.palette.Query = a.ui.palette.Query[:n-1]
		}
		return
	case term.KeyArrowUp:
		if a.ui.palette.Selected > 0 {
			a.ui.palette.Selected--
		}
		return
	case term.KeyArrowDown:
		a.ui.palette.Selected++
		return
	case term.KeyEnter:
		a.runPaletteSelection()
		return
	}
	if ev.Key == term.KeyRune && !ev.Ctrl {
		a.ui.palette.Query = append(a.ui.palette.Query, ev.Rune)
		a.ui.palette.Selected = 0
	}
}

// paletteCommand pairs a display name with the Command it runs.
type paletteCommand struct {
	Name string
	Run  func(*App)
}

var paletteCommands = []paletteCommand{
	{"Save", func(a *App) { a.save() }},
	{"Restart LSP", func(a *App) { a.restartLSP() }},
	{"Toggle comment", func(a *App) { a.toggleComment() }},
	{"Go to line", func(a *App) { a.openPrompt(promptGotoLine) }},
	{"Search (regex)", func(a *App) { a.openPrompt(promptRegexSearch) }},
}

// filteredPaletteCommands returns paletteCommands whose name contains the
// current palette query as a case-insensitive substring, used both by the
// UI to render the list and here to resolve Enter.
func (a *App) filteredPaletteCommands() []paletteCommand {
	query := string(a.ui.palette.Query)
	if query == "" {
		return paletteCommands
	}
	var out []paletteCommand
	for _, c := range paletteCommands {
		if containsFold(c.Name, query) {
			out = append(out, c)
		}
	}
	return out
}

func (a *App) runPaletteSelection() {
	matches := a.filteredPaletteCommands()
	selected := a.ui.palette.Selected
	a.ui.palette = paletteState{}
	if len(matches) == 0 {
		return
	}
	idx := 0
	if selected < len(matches) {
		idx = selected
	}
	matches[idx].Run(a)
}

func containsFold(s, substr string) bool {
	sl := []rune(s)
	bl := []rune(substr)
	for i := range lower(sl) {
		lsl := lower(sl)
		if i+len(bl) > len(lsl) {
			break
		}
		if equalFold(lsl[i:i+len(bl)], lower(bl)) {
			return true
		}
	}
	return len(bl) == 0
}

func lower(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out[i] = r
	}
	return out
}

func equalFold(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
