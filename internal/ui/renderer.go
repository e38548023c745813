// Package ui implements component I, the UI Renderer: it composes a
// single ANSI frame from the App's buffer/editor/LSP/UI state and writes
// it atomically to the terminal (spec §4.7).
package ui

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"zicro/internal/app"
	"zicro/internal/highlight"
)

const (
	gutterWidth  = 5 // "NNNN "
	footerHeight = 2 // status bar + message bar
	displayTabWidth = 8
)

var (
	styleGutter     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleGutterDiag = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleStatusBar  = lipgloss.NewStyle().Reverse(true)
	styleSelection  = lipgloss.NewStyle().Background(lipgloss.Color("4"))
	styleSearch     = lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0"))
	styleDiagSpan   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("1"))
	styleKeyword    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleString     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleComment    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleNumber     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// spinnerFrames are the glyphs cycled by SpinnerFrame (spec §3).
var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧'}

// Render composes one full frame for an a-sized terminal and returns the
// raw bytes to write to stdout. It hides the cursor during composition and
// restores it, positioned at the editor cursor, at the end (spec §4.7).
func Render(a *app.App, width, height int) []byte {
	var buf bytes.Buffer
	buf.WriteString(ansi.HideCursor)
	buf.WriteString(ansi.CursorPosition(1, 1))

	topHeight := 1
	contentHeight := height - topHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	contentWidth := width - gutterWidth
	if contentWidth < 1 {
		contentWidth = 1
	}

	adjustScroll(a, contentHeight)

	buf.WriteString(renderDiagnosticsBar(a, width))
	buf.WriteString("\r\n")

	cursorLine, cursorCol := cursorScreenPosition(a, contentWidth)

	for row := 0; row < contentHeight; row++ {
		line := a.State.ScrollY + row
		buf.WriteString(renderLine(a, line, contentWidth))
		buf.WriteString("\r\n")
	}

	buf.WriteString(renderStatusBar(a, width))
	buf.WriteString("\r\n")
	buf.WriteString(renderMessageBar(a, width))

	renderOverlays(a, &buf, width, height)

	screenRow := topHeight + 1 + (cursorLine - a.State.ScrollY)
	buf.WriteString(ansi.CursorPosition(screenRow, cursorCol+gutterWidth+1))
	buf.WriteString(ansi.ShowCursor)
	return buf.Bytes()
}

// adjustScroll implements spec §4.7's "adjust scroll_y so the cursor lies
// within the viewport".
func adjustScroll(a *app.App, contentHeight int) {
	line, _ := a.Buf.LineColFromOffset(a.State.Cursor)
	if line < a.State.ScrollY {
		a.State.ScrollY = line
	}
	if line >= a.State.ScrollY+contentHeight {
		a.State.ScrollY = line - contentHeight + 1
	}
	if a.State.ScrollY < 0 {
		a.State.ScrollY = 0
	}
}

func cursorScreenPosition(a *app.App, contentWidth int) (line, col int) {
	line, _ = a.Buf.LineColFromOffset(a.State.Cursor)
	col = a.Buf.VisualColumn(a.State.Cursor, displayTabWidth)
	if col > contentWidth {
		col = contentWidth
	}
	return
}

// renderLine implements the gutter + clipped content + overlay rules in
// spec §4.7.
func renderLine(a *app.App, line int, contentWidth int) string {
	if line >= a.Buf.LineCount() {
		return fmt.Sprintf("%5s", "")
	}

	diag := a.Cfg.Lsp.Enabled && lineHasDiagnostic(a, line)
	gutterText := fmt.Sprintf("%4d ", line+1)
	var gutter string
	if diag {
		gutter = styleGutterDiag.Render("!") + styleGutter.Render(gutterText[1:])
	} else {
		gutter = styleGutter.Render(gutterText)
	}

	start := a.Buf.LineStart(line)
	end := a.Buf.LineEnd(line)
	lineBytes := a.Buf.Bytes()[start:end]
	clipped, byteWidth := clipToDisplayWidth(lineBytes, contentWidth, displayTabWidth)

	spans := highlight.Highlight(a.State.Language, clipped)
	rendered := renderSpansWithOverlays(a, clipped, spans, start, byteWidth)

	return gutter + rendered
}

// clipToDisplayWidth clips raw to the first maxCols tab-aware display
// columns (spec §4.7: "tab width = 8 for display"), returning the clipped
// slice and how many source bytes it consumed.
func clipToDisplayWidth(raw []byte, maxCols int, tabWidth int) ([]byte, int) {
	col := 0
	i := 0
	for i < len(raw) && col < maxCols {
		if raw[i] == '\t' {
			col += tabWidth - (col % tabWidth)
			i++
			continue
		}
		i += codepointLen(raw[i])
		col++
	}
	return raw[:i], i
}

func codepointLen(lead byte) int {
	switch {
	case lead&0x80 == 0x00:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// renderSpansWithOverlays renders clipped bytes plain, applying syntax
// spans, then overlaying selection/search/diagnostic highlights in the
// priority order spec §4.7 names: selection > search match > diagnostic.
func renderSpansWithOverlays(a *app.App, clipped []byte, spans []highlight.Span, lineStart int, byteWidth int) string {
	kind := make([]highlight.TokenKind, len(clipped))
	for _, s := range spans {
		for i := s.Start; i < s.End && i < len(kind); i++ {
			kind[i] = s.Kind
		}
	}

	const (
		ovNone = iota
		ovDiag
		ovSearch
		ovSelection
	)
	overlay := make([]int, len(clipped))

	if a.Cfg.Lsp.Enabled {
		if ds, ok := diagnosticSymbolRange(a, lineStart, lineStart+byteWidth); ok {
			markRange(overlay, ds.start-lineStart, ds.end-lineStart, ovDiag)
		}
	}
	if a.State.SearchMatch != nil {
		markRange(overlay, a.State.SearchMatch.Start-lineStart, a.State.SearchMatch.End-lineStart, ovSearch)
	}
	if a.State.HasSelection() {
		s, e := a.State.SelectionRange()
		markRange(overlay, s-lineStart, e-lineStart, ovSelection)
	}

	var out bytes.Buffer
	i := 0
	for i < len(clipped) {
		j := i + 1
		for j < len(clipped) && overlay[j] == overlay[i] && kind[j] == kind[i] {
			j++
		}
		text := string(clipped[i:j])
		out.WriteString(styleFor(overlay[i], kind[i]).Render(text))
		i = j
	}
	return out.String()
}

func markRange(overlay []int, start, end int, k int) {
	if start < 0 {
		start = 0
	}
	if end > len(overlay) {
		end = len(overlay)
	}
	for i := start; i < end; i++ {
		overlay[i] = k
	}
}

func styleFor(overlay int, kind highlight.TokenKind) lipgloss.Style {
	switch overlay {
	case 3:
		return styleSelection
	case 2:
		return styleSearch
	case 1:
		return styleDiagSpan
	}
	switch kind {
	case highlight.TokenKeyword:
		return styleKeyword
	case highlight.TokenString:
		return styleString
	case highlight.TokenComment:
		return styleComment
	case highlight.TokenNumber:
		return styleNumber
	}
	return lipgloss.NewStyle()
}

type diagSymbolRange struct{ start, end int }

// diagnosticSymbolRange implements spec §4.7/§8's open question: the
// first substring match of the reported symbol within the line wins.
func diagnosticSymbolRange(a *app.App, lineStart, lineEnd int) (diagSymbolRange, bool) {
	snap := a.LSP.Diagnostics()
	if snap.FirstSymbol == "" {
		return diagSymbolRange{}, false
	}
	line, _ := a.Buf.LineColFromOffset(lineStart)
	found := false
	for _, l := range snap.Lines {
		if l-1 == line {
			found = true
			break
		}
	}
	if !found {
		return diagSymbolRange{}, false
	}
	bs := a.Buf.Bytes()[lineStart:lineEnd]
	idx := bytes.Index(bs, []byte(snap.FirstSymbol))
	if idx < 0 {
		return diagSymbolRange{}, false
	}
	return diagSymbolRange{start: lineStart + idx, end: lineStart + idx + len(snap.FirstSymbol)}, true
}

func lineHasDiagnostic(a *app.App, line int) bool {
	snap := a.LSP.Diagnostics()
	for _, l := range snap.Lines {
		if l-1 == line {
			return true
		}
	}
	return false
}

func renderDiagnosticsBar(a *app.App, width int) string {
	snap := a.LSP.Diagnostics()
	if !a.Cfg.Lsp.Enabled || snap.Count == 0 {
		return lipgloss.NewStyle().Width(width).Render("")
	}
	text := fmt.Sprintf(" %d diagnostic(s): line %d: %s", snap.Count, snap.FirstLine, snap.FirstMessage)
	return lipgloss.NewStyle().Width(width).Background(lipgloss.Color("1")).Render(truncateDisplay(text, width))
}

func renderStatusBar(a *app.App, width int) string {
	dirty := " "
	if a.State.Dirty {
		dirty = "*"
	}
	line, col := a.Buf.LineColFromOffset(a.State.Cursor)
	left := fmt.Sprintf(" %s%s [%d:%d]", a.State.FilePath, dirty, line+1, col+1)
	right := ""
	if a.Cfg.Lsp.Enabled && a.LSP.Enabled() && a.LSP.PendingRequestCount() > 0 {
		right += string(spinnerFrames[a.SpinnerFrame()%len(spinnerFrames)]) + " "
	}
	if stats, ok := a.PerfStats(); ok {
		right += fmt.Sprintf("fps=%.0f avg=%.1fms p95=%.1fms ", stats.EMAFPS, stats.AvgMs, stats.P95Ms)
	}
	pad := width - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	return styleStatusBar.Width(width).Render(truncateDisplay(left+repeat(" ", pad)+right, width))
}

func renderMessageBar(a *app.App, width int) string {
	return truncateDisplay(" "+a.StatusLine(), width)
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func truncateDisplay(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width]
}

// renderOverlays draws the prompt, palette, LSP panel, and hover tooltip
// panes described in spec §3/§4.6 as centered floating boxes.
func renderOverlays(a *app.App, buf *bytes.Buffer, width, height int) {
	if active, isGoto, query := a.PromptView(); active {
		label := "search"
		if isGoto {
			label = "goto line"
		}
		drawBox(buf, width, height, fmt.Sprintf("%s: %s", label, query))
	}
	if active, query, items, selected := a.PaletteView(); active {
		drawList(buf, width, height, "palette: "+query, items, selected)
	}
	if mode, items, selected := a.PanelView(); mode != app.PanelNone {
		title := "completion"
		if mode == app.PanelReferences {
			title = "references"
		}
		drawList(buf, width, height, title, items, selected)
	}
	maxRows := a.Cfg.Lsp.UI.TooltipMaxRows
	maxWidth := a.Cfg.Lsp.UI.TooltipMaxWidth
	if tip := a.HoverTooltip(); tip != "" {
		drawTooltip(buf, width, tip, maxWidth, maxRows)
	}
}

func drawBox(buf *bytes.Buffer, width, height int, text string) {
	row := height / 2
	buf.WriteString(ansi.CursorPosition(row, 2))
	buf.WriteString(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Render(truncateDisplay(text, width-4)))
}

func drawList(buf *bytes.Buffer, width, height int, title string, items []string, selected int) {
	row := height/2 - len(items)/2
	buf.WriteString(ansi.CursorPosition(row, 2))
	var body bytes.Buffer
	body.WriteString(title + "\n")
	for i, it := range items {
		marker := "  "
		if i == selected {
			marker = "> "
		}
		body.WriteString(marker + it + "\n")
	}
	buf.WriteString(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Render(truncateDisplay(body.String(), width-4)))
}

func drawTooltip(buf *bytes.Buffer, width int, text string, maxWidth, maxRows int) {
	if maxWidth <= 0 {
		maxWidth = 80
	}
	if maxRows <= 0 {
		maxRows = 12
	}
	buf.WriteString(ansi.CursorPosition(2, width-maxWidth-2))
	buf.WriteString(lipgloss.NewStyle().MaxWidth(maxWidth).MaxHeight(maxRows).
		Border(lipgloss.RoundedBorder()).Render(truncateDisplay(text, maxWidth*maxRows)))
}
