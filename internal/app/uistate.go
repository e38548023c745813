package app

import "time"

// PanelMode is the LSP side panel's mode (spec §3's UI State).
type PanelMode int

const (
	PanelNone PanelMode = iota
	PanelCompletion
	PanelReferences
)

// panelState tracks the modal completion/references panel (spec §4.6:
// "Panels (completion, references) are modal").
type panelState struct {
	Mode     PanelMode
	Selected int
}

// promptMode distinguishes the two single-line prompts spec §3 names.
type promptMode int

const (
	promptGotoLine promptMode = iota
	promptRegexSearch
)

type promptState struct {
	Active bool
	Mode   promptMode
	Query  []rune
}

type paletteState struct {
	Active   bool
	Query    []rune
	Selected int
}

const statusRingSize = 8

// uiState groups the App's UI-facing bits that aren't the buffer or
// editor-motion state (spec §3's "UI State").
type uiState struct {
	palette paletteState
	prompt  promptState
	panel   panelState

	statusMessages []string
	hoverTooltip   string

	nextCompletionAt time.Time
	completionArmed  bool
	nextHoverAt      time.Time
	hoverArmed       bool

	lastDefinitionRev uint64
}

// pushStatus appends to the status message ring (spec §3), evicting the
// oldest entry once full.
func (u *uiState) pushStatus(msg string) {
	u.statusMessages = append(u.statusMessages, msg)
	if len(u.statusMessages) > statusRingSize {
		u.statusMessages = u.statusMessages[len(u.statusMessages)-statusRingSize:]
	}
}

// lastStatus returns the most recent status message, or "" if none.
func (u *uiState) lastStatus() string {
	if len(u.statusMessages) == 0 {
		return ""
	}
	return u.statusMessages[len(u.statusMessages)-1]
}
