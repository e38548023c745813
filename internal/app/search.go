package app

import (
	"regexp"

	"zicro/internal/editor"
)

// runRegexSearch implements Ctrl+F (spec §4.2/§7): compile the query as a
// regexp and find the first match starting at or after the cursor,
// wrapping to the start of the buffer if nothing matches after it.
// Compile errors clear any existing match and report "invalid pattern".
func (a *App) runRegexSearch(pattern string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		a.State.SearchMatch = nil
		a.ui.pushStatus("invalid pattern")
		return
	}

	bs := a.Buf.Bytes()
	if loc := re.FindIndex(bs[a.State.Cursor:]); loc != nil {
		a.setSearchMatch(a.State.Cursor+loc[0], a.State.Cursor+loc[1])
		return
	}
	if loc := re.FindIndex(bs); loc != nil {
		a.setSearchMatch(loc[0], loc[1])
		return
	}
	a.State.SearchMatch = nil
	a.ui.pushStatus("no match")
}

func (a *App) setSearchMatch(start, end int) {
	a.State.SearchMatch = &editor.SearchMatch{Start: start, End: end}
	a.State.ClearSelection()
	a.State.SetCursor(start)
}
