package term

// Key enumerates the non-printable keys the driver decodes from raw
// terminal input. The terminal driver itself — raw-mode setup and ANSI
// decoding — is an external collaborator per spec §1; this file only
// specifies the KeyEvent sum type its decoder must produce.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // a printable codepoint; see KeyEvent.Rune
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
)

// KeyEvent is the decoded key-press sum type consumed by editor.MapEditor.
type KeyEvent struct {
	Key  Key
	Rune rune // valid when Key == KeyRune or for Ctrl-modified ASCII letters
	Ctrl bool
	Alt  bool
	Shift bool
}
