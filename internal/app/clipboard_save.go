package app

import (
	"time"

	"zicro/internal/editor"
)

// copySelection implements Ctrl+C (spec §4.2/§8 scenario S1): the active
// selection's bytes are written to the clipboard, selection unchanged.
func (a *App) copySelection() {
	if !a.State.HasSelection() {
		return
	}
	start, end := a.State.SelectionRange()
	data := a.Buf.Bytes()[start:end]
	if err := a.Clip.Write(data); err != nil {
		a.ui.pushStatus("clipboard: " + err.Error())
	}
}

// cutSelection implements Ctrl+X: copy then delete, forcing a full sync
// since clipboard-driven deletion is in spec §4.5's force-full list.
func (a *App) cutSelection() {
	if !a.State.HasSelection() {
		return
	}
	start, end := a.State.SelectionRange()
	data := a.Buf.Bytes()[start:end]
	if err := a.Clip.Write(data); err != nil {
		a.ui.pushStatus("clipboard: " + err.Error())
		return
	}
	a.Sync.ForceFullSync()
	a.deleteSelection()
}

// paste implements Ctrl+V. Pasting into a block selection forces a full
// sync (spec §4.5); a plain paste is an ordinary insert.
func (a *App) paste() {
	data, err := a.Clip.Read()
	if err != nil {
		a.ui.pushStatus("clipboard: " + err.Error())
		return
	}
	if a.State.HasSelection() && a.State.SelectionMode == editor.SelectionBlock {
		a.Sync.ForceFullSync()
	}
	a.insertBytes(data)
}

// save implements Ctrl+S: write the buffer to FilePath and, if the LSP is
// live, send didSave. IO errors surface as a status line and do not clear
// the dirty flag (spec §7).
func (a *App) save() {
	if a.State.FilePath == "" {
		a.ui.pushStatus("save: no file path")
		return
	}
	if err := a.writeFile(a.State.FilePath, a.Buf.Bytes()); err != nil {
		a.ui.pushStatus("save failed: " + err.Error())
		return
	}
	a.State.Dirty = false
	a.State.ConfirmQuit = false
	if a.Cfg.Lsp.Enabled && a.LSP.Enabled() {
		_ = a.LSP.DidSave()
	}
	a.Sync.QueueDidChange(time.Now())
}
