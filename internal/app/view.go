package app

// This file exposes a read-only view of App's otherwise-unexported UI
// state for the renderer (component I), which lives in a separate
// package so rendering concerns stay out of the event loop.

// StatusLine returns the most recent status message, if any.
func (a *App) StatusLine() string { return a.ui.lastStatus() }

// HoverTooltip returns the current hover snapshot's text, or "" if none.
func (a *App) HoverTooltip() string {
	if !a.Cfg.Lsp.Enabled {
		return ""
	}
	return a.LSP.Hover().Text
}

// SpinnerFrame returns the current spinner animation frame (0..7).
func (a *App) SpinnerFrame() int { return a.spinnerIdx }

// PerfStats exposes the perf overlay summary; ok is false when the overlay
// is disabled in config.
func (a *App) PerfStats() (stats perfStats, ok bool) {
	if !a.Cfg.UI.PerfOverlay {
		return perfStats{}, false
	}
	return a.perf.stats(), true
}

// PromptView reports the active prompt's mode and current query text.
func (a *App) PromptView() (active bool, gotoLine bool, query string) {
	if !a.ui.prompt.Active {
		return false, false, ""
	}
	return true, a.ui.prompt.Mode == promptGotoLine, string(a.ui.prompt.Query)
}

// PaletteView reports the palette's query, matching command names, and
// selected index.
func (a *App) PaletteView() (active bool, query string, items []string, selected int) {
	if !a.ui.palette.Active {
		return false, "", nil, 0
	}
	matches := a.filteredPaletteCommands()
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return true, string(a.ui.palette.Query), names, a.ui.palette.Selected
}

// PanelView reports the LSP side panel's mode, item labels, and selected
// index.
func (a *App) PanelView() (mode PanelMode, items []string, selected int) {
	switch a.ui.panel.Mode {
	case PanelCompletion:
		snap := a.LSP.Completion()
		items = make([]string, len(snap.Items))
		for i, it := range snap.Items {
			items[i] = it.Label
		}
	case PanelReferences:
		snap := a.LSP.References()
		items = make([]string, len(snap.Refs))
		for i, r := range snap.Refs {
			items[i] = r.URI
		}
	}
	return a.ui.panel.Mode, items, a.ui.panel.Selected
}
