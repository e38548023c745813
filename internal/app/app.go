// Package app implements component H, the App Event Loop: it owns the
// buffer, editor state, LSP client, sync engine, and UI state as a single
// value, and drives them cooperatively on a single thread (spec §3/§4.6).
package app

import (
	"log"
	"time"

	"zicro/internal/buffer"
	"zicro/internal/clipboard"
	"zicro/internal/config"
	"zicro/internal/editor"
	"zicro/internal/lsp"
	"zicro/internal/sync"
	"zicro/internal/term"
)

// maxKeyEventsPerTick bounds step 1 of the event loop (spec §4.6).
const maxKeyEventsPerTick = 128

// spinnerFrameInterval advances the LSP busy spinner (spec §3).
const spinnerFrameInterval = 120 * time.Millisecond

// jumpStackCap bounds the definition/reference jump stack (spec §3).
const jumpStackCap = 256

// App is the single owned value described in spec §3's Lifecycle: Buffer,
// Editor State, LSP Client, and UI State are all constructed at startup
// and destroyed on exit.
type App struct {
	Buf   *buffer.Buffer
	State *editor.State
	LSP   *lsp.Client
	Sync  *sync.Engine
	Cfg   *config.Config
	Clip  clipboard.Clipboard
	Term  *term.Driver
	Log   *log.Logger

	Running     bool
	NeedsRender bool

	ui         uiState
	jumpStack  []int
	spinnerAt  time.Time
	spinnerIdx int
	perf       perfRing

	writeFile func(path string, data []byte) error

	// ExternalChanges carries notifications from a filesystem watcher
	// running on its own goroutine; Tick drains it so status updates still
	// happen on the single event-loop thread.
	ExternalChanges chan string
}

// New constructs an App ready to run once Open has provided a terminal
// and LSP.StartForFile has been attempted (or skipped) by the caller.
func New(buf *buffer.Buffer, filePath string, cfg *config.Config, logger *log.Logger) *App {
	client := lsp.New()
	debounce := time.Duration(cfg.Lsp.ChangeDebounceMs) * time.Millisecond
	eng := sync.New(client, debounce)
	if cfg.Autosave {
		eng.SetAutosave(true, filePath)
	}

	st := editor.New()
	st.FilePath = filePath
	st.Language = detectLanguage(filePath)

	return &App{
		Buf:         buf,
		State:       st,
		LSP:         client,
		Sync:        eng,
		Cfg:         cfg,
		Clip:        clipboard.New(),
		Log:         logger,
		Running:         true,
		NeedsRender:     true,
		writeFile:       defaultWriteFile,
		ExternalChanges: make(chan string, 8),
	}
}

func detectLanguage(path string) string {
	return lsp.DetectLanguage(path)
}

// Tick implements spec §4.6's five-step loop body. events is whatever the
// terminal driver decoded this pass; now is the tick's timestamp.
func (a *App) Tick(events []term.KeyEvent, now time.Time) {
	a.drainExternalChanges()
	handled := a.drainEvents(events)

	if a.Cfg.Lsp.Enabled && a.LSP.Enabled() {
		a.LSP.Poll()
		a.advanceSpinner(now)
		a.driveAutoRequests(now)
		a.checkDefinitionArrival()
	}

	if a.Sync.Pending() && !now.Before(a.Sync.NextFlushAt()) {
		if a.Sync.FlushPendingDidChange(a.Buf, now, false) {
			a.NeedsRender = true
		}
	}

	if a.NeedsRender {
		a.perf.record(now)
	}

	if !handled {
		a.sleepUntilNextDeadline(now)
	}
}

// drainExternalChanges surfaces filesystem-watcher notifications as status
// messages without letting the watcher goroutine touch editor state directly.
func (a *App) drainExternalChanges() {
	if a.ExternalChanges == nil {
		return
	}
	for {
		select {
		case path := <-a.ExternalChanges:
			a.ui.pushStatus("file changed on disk: " + path)
			a.NeedsRender = true
		default:
			return
		}
	}
}

// drainEvents implements step 1: drain up to 128 keyboard events, dispatch
// by mode precedence (palette > prompt > editor), and report whether
// anything was processed.
func (a *App) drainEvents(events []term.KeyEvent) bool {
	if len(events) > maxKeyEventsPerTick {
		events = events[:maxKeyEventsPerTick]
	}
	handled := false
	for _, ev := range events {
		a.dispatchOne(ev)
		handled = true
		a.NeedsRender = true
	}
	return handled
}

func (a *App) dispatchOne(ev term.KeyEvent) {
	switch {
	case a.ui.palette.Active:
		a.handlePaletteKey(ev)
	case a.ui.prompt.Active:
		a.handlePromptKey(ev)
	case a.ui.panel.Mode != PanelNone:
		a.handlePanelKey(ev)
	default:
		a.handleEditorKey(ev)
	}
}

// sleepUntilNextDeadline implements step 5 by computing a sleep budget of
// at most 1 ms, shortened to the pending didChange deadline. It does not
// sleep; Tick discards the value, and cmd/zicro's loop sleeps a fixed 1 ms.
func (a *App) sleepUntilNextDeadline(now time.Time) time.Duration {
	budget := time.Millisecond
	if a.Sync.Pending() {
		if until := a.Sync.NextFlushAt().Sub(now); until > 0 && until < budget {
			budget = until
		}
	}
	return budget
}

func (a *App) advanceSpinner(now time.Time) {
	if a.LSP.PendingRequestCount() == 0 {
		return
	}
	if now.Sub(a.spinnerAt) < spinnerFrameInterval {
		return
	}
	a.spinnerAt = now
	a.spinnerIdx = (a.spinnerIdx + 1) % 8
}

// pushJump records the cursor before a successful jump (spec §4.4.6), FIFO
// evicting the oldest entry once full.
func (a *App) pushJump(offset int) {
	a.jumpStack = append(a.jumpStack, offset)
	if len(a.jumpStack) > jumpStackCap {
		a.jumpStack = a.jumpStack[len(a.jumpStack)-jumpStackCap:]
	}
}

// popJump implements Ctrl+B (CmdLspJumpBack): move to the most recently
// pushed offset.
func (a *App) popJump() (int, bool) {
	if len(a.jumpStack) == 0 {
		return 0, false
	}
	last := a.jumpStack[len(a.jumpStack)-1]
	a.jumpStack = a.jumpStack[:len(a.jumpStack)-1]
	return last, true
}

// Shutdown implements spec §3's teardown: stop the LSP child and restore
// the terminal.
func (a *App) Shutdown() {
	a.LSP.Stop()
	if a.Term != nil {
		_ = a.Term.Close()
	}
}
