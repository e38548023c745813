package app

import (
	"strings"
	"time"

	"zicro/internal/lsp"
	"zicro/internal/sync"
	"zicro/internal/term"
)

// armAutoRequestsAfterEdit implements spec §4.6's auto-request semantics:
// schedule a completion request when the byte before the cursor looks
// like a trigger, and always (re)schedule an auto-hover.
func (a *App) armAutoRequestsAfterEdit(inserted []byte) {
	if !a.Cfg.Lsp.Enabled {
		return
	}
	now := time.Now()
	if a.Cfg.Lsp.Completion.Auto && a.shouldTriggerCompletion(inserted) {
		a.ui.nextCompletionAt = now.Add(time.Duration(a.Cfg.Lsp.Completion.DebounceMs) * time.Millisecond)
		a.ui.completionArmed = true
	}
	if a.Cfg.Lsp.Hover.Auto {
		a.ui.nextHoverAt = now.Add(time.Duration(a.Cfg.Lsp.Hover.DebounceMs) * time.Millisecond)
		a.ui.hoverArmed = true
	}
}

func (a *App) shouldTriggerCompletion(inserted []byte) bool {
	if len(inserted) == 0 {
		return false
	}
	last := inserted[len(inserted)-1]
	if last == '.' && a.Cfg.Lsp.Completion.TriggerOnDot {
		return true
	}
	if !a.Cfg.Lsp.Completion.TriggerOnLetters {
		return false
	}
	prefixLen := a.currentIdentifierPrefixLen()
	return prefixLen >= a.Cfg.Lsp.Completion.MinPrefixLen
}

// currentIdentifierPrefixLen counts word bytes immediately before the
// cursor (spec §4.6's "current identifier prefix length").
func (a *App) currentIdentifierPrefixLen() int {
	bs := a.Buf.Bytes()
	i := a.State.Cursor
	n := 0
	for i > 0 && isIdentByte(bs[i-1]) {
		i--
		n++
	}
	return n
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// driveAutoRequests fires due auto-completion/auto-hover requests and
// advances the LSP client (spec §4.6 step 2).
func (a *App) driveAutoRequests(now time.Time) {
	if a.ui.completionArmed && !now.Before(a.ui.nextCompletionAt) {
		a.ui.completionArmed = false
		a.requestCompletion(true)
	}
	if a.ui.hoverArmed && !now.Before(a.ui.nextHoverAt) {
		a.ui.hoverArmed = false
		a.requestHover(true)
	}
}

func (a *App) requestCompletion(auto bool) {
	if !a.Cfg.Lsp.Enabled || !a.LSP.Enabled() {
		if !auto {
			a.ui.pushStatus("completion unavailable")
		}
		return
	}
	pos := sync.LSPPositionFromOffset(a.Buf, a.State.Cursor)
	if err := a.LSP.RequestCompletion(pos); err != nil {
		if !auto {
			a.ui.pushStatus(err.Error())
		}
		return
	}
	a.ui.panel.Mode = PanelCompletion
	a.ui.panel.Selected = 0
}

func (a *App) requestHover(auto bool) {
	if !a.Cfg.Lsp.Enabled || !a.LSP.Enabled() {
		if !auto {
			a.ui.pushStatus("hover unavailable")
		}
		return
	}
	pos := sync.LSPPositionFromOffset(a.Buf, a.State.Cursor)
	if err := a.LSP.RequestHover(pos); err != nil && !auto {
		a.ui.pushStatus(err.Error())
	}
}

func (a *App) requestDefinition() {
	if !a.Cfg.Lsp.Enabled || !a.LSP.Enabled() {
		a.ui.pushStatus("definition unavailable")
		return
	}
	pos := sync.LSPPositionFromOffset(a.Buf, a.State.Cursor)
	if err := a.LSP.RequestDefinition(pos); err != nil {
		a.ui.pushStatus(err.Error())
	}
}

func (a *App) requestReferences() {
	if !a.Cfg.Lsp.Enabled || !a.LSP.Enabled() {
		a.ui.pushStatus("references unavailable")
		return
	}
	pos := sync.LSPPositionFromOffset(a.Buf, a.State.Cursor)
	if err := a.LSP.RequestReferences(pos); err != nil {
		a.ui.pushStatus(err.Error())
		return
	}
	a.ui.panel.Mode = PanelReferences
	a.ui.panel.Selected = 0
}

// applyDefinitionResult implements spec §4.4.6's jump semantics: same-file
// jumps move the cursor and push the jump stack; cross-file jumps are
// reported, not followed.
func (a *App) applyDefinitionResult(snap lsp.DefinitionSnapshot) {
	if snap.URI == "" {
		return
	}
	if !strings.EqualFold(snap.URI, a.LSP.DocumentURI()) {
		a.ui.pushStatus("Cross-file jump not supported")
		return
	}
	offset := a.Buf.OffsetFromLineCol(snap.Pos.Line, 0)
	a.pushJump(a.State.Cursor)
	a.State.ClearSelection()
	a.State.SetCursor(offset)
}

// checkDefinitionArrival notices a fresh definition response and performs
// the jump (spec §4.4.6); the discard-on-cursor-move rule in spec §4.6
// applies to the auto completion/hover requests, not this explicit jump.
func (a *App) checkDefinitionArrival() {
	snap := a.LSP.Definition()
	if snap.Rev == a.ui.lastDefinitionRev {
		return
	}
	a.ui.lastDefinitionRev = snap.Rev
	a.applyDefinitionResult(snap)
}

func (a *App) jumpBack() {
	if offset, ok := a.popJump(); ok {
		a.State.ClearSelection()
		a.State.SetCursor(offset)
	}
}

func (a *App) restartLSP() {
	a.LSP.Stop()
	if err := a.LSP.StartForFile(a.State.FilePath, nil); err != nil {
		a.ui.pushStatus("lsp restart failed: " + err.Error())
		return
	}
	a.ui.pushStatus("lsp restarted")
}

// handlePanelKey implements the modal completion/references panel
// described in spec §4.6: Up/Down navigate, Enter activates, Esc closes,
// Tab activates completion specifically, any other rune closes the panel
// and falls through to the editor.
func (a *App) handlePanelKey(ev term.KeyEvent) {
	switch ev.Key {
	case term.KeyArrowUp:
		if a.ui.panel.Selected > 0 {
			a.ui.panel.Selected--
		}
		return
	case term.KeyArrowDown:
		a.ui.panel.Selected++
		return
	case term.KeyEscape:
		a.ui.panel.Mode = PanelNone
		return
	case term.KeyEnter, term.KeyTab:
		a.activatePanelSelection()
		return
	}
	if ev.Key == term.KeyRune && !ev.Ctrl {
		a.ui.panel.Mode = PanelNone
		a.insertRune(ev.Rune)
		return
	}
	a.ui.panel.Mode = PanelNone
}

func (a *App) activatePanelSelection() {
	switch a.ui.panel.Mode {
	case PanelCompletion:
		snap := a.LSP.Completion()
		if a.ui.panel.Selected >= 0 && a.ui.panel.Selected < len(snap.Items) {
			item := snap.Items[a.ui.panel.Selected]
			a.insertBytes([]byte(item.InsertText))
		}
	case PanelReferences:
		snap := a.LSP.References()
		if a.ui.panel.Selected >= 0 && a.ui.panel.Selected < len(snap.Refs) {
			ref := snap.Refs[a.ui.panel.Selected]
			a.applyDefinitionResult(lsp.DefinitionSnapshot{URI: ref.URI, Pos: ref.Range.Start})
		}
	}
	a.ui.panel.Mode = PanelNone
}
