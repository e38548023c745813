package term

import (
	"errors"
	"io"
	"os"

	xterm "github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/muesli/cancelreader"
)

// Driver owns raw-mode terminal state and decodes stdin bytes into
// KeyEvents. Its internals (escape-sequence decoding, raw-mode setup) sit
// outside this specification's scope (spec §1); it exists here only so
// the rest of the module has a concrete, runnable collaborator to
// multiplex in the event loop.
type Driver struct {
	fd       int
	oldState *xterm.State
	reader   cancelreader.CancelReader
}

// IsTerminal reports whether fd refers to an interactive terminal.
func IsTerminal(fd int) bool {
	return isatty.IsTerminal(uintptr(fd)) || isatty.IsCygwinTerminal(uintptr(fd))
}

// Open enters raw mode on stdin and begins a cancellable reader over it.
func Open() (*Driver, error) {
	fd := int(os.Stdin.Fd())
	old, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	r, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		_ = xterm.Restore(fd, old)
		return nil, err
	}
	return &Driver{fd: fd, oldState: old, reader: r}, nil
}

// Close restores the terminal's prior mode and stops the reader.
func (d *Driver) Close() error {
	_ = d.reader.Cancel()
	return xterm.Restore(d.fd, d.oldState)
}

// Size reports the current terminal dimensions, falling back to 80x24 if
// the ioctl fails (e.g. stdout redirected to a pipe).
func (d *Driver) Size() (width, height int) {
	w, h, err := xterm.GetSize(d.fd)
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// ReadEvents drains whatever is currently buffered on stdin (non-blocking
// from the caller's perspective: a zero-byte read with no error means
// nothing is pending) and decodes it into KeyEvents, appending to out.
// The event loop (component H) calls this once per tick.
func (d *Driver) ReadEvents(out []KeyEvent) ([]KeyEvent, error) {
	buf := make([]byte, 4096)
	n, err := d.reader.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, cancelreader.ErrCanceled) {
			return out, err
		}
		return out, err
	}
	return decode(buf[:n], out), nil
}

// decode turns a chunk of raw terminal bytes into KeyEvents. It handles
// the common CSI arrow/home/end/page sequences (with the usual ";2"/
// ";3"/";5" Shift/Alt/Ctrl modifier suffix), bare control bytes, and
// UTF-8 printable runes.
func decode(buf []byte, out []KeyEvent) []KeyEvent {
	i := 0
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == 0x1b && i+2 < len(buf) && buf[i+1] == '[':
			ev, consumed := decodeCSI(buf[i:])
			if consumed > 0 {
				out = append(out, ev)
				i += consumed
				continue
			}
			i++
		case b == 0x1b && i == len(buf)-1:
			// A lone ESC at the end of the chunk is the Escape key itself.
			out = append(out, KeyEvent{Key: KeyEscape})
			i++
		case b == 0x1b:
			i++ // ESC prefixing more bytes, swallowed (alt-prefix handling is approximate)
		case b == '\r' || b == '\n':
			out = append(out, KeyEvent{Key: KeyEnter})
			i++
		case b == '\t':
			out = append(out, KeyEvent{Key: KeyTab})
			i++
		case b == 0x7f || b == 0x08:
			out = append(out, KeyEvent{Key: KeyBackspace})
			i++
		case b == 0x1f:
			// Ctrl+/ arrives as 0x1f.
			out = append(out, KeyEvent{Key: KeyRune, Rune: '/', Ctrl: true})
			i++
		case b < 0x20:
			// Ctrl+letter: Ctrl+A == 0x01 .. Ctrl+Z == 0x1a.
			out = append(out, KeyEvent{Key: KeyRune, Rune: rune(b + 'a' - 1), Ctrl: true})
			i++
		default:
			r, size := decodeRune(buf[i:])
			out = append(out, KeyEvent{Key: KeyRune, Rune: r})
			i += size
		}
	}
	return out
}

// decodeRune decodes one UTF-8 codepoint from buf, defaulting to a 1-byte
// advance on malformed input so the decoder never stalls.
func decodeRune(buf []byte) (rune, int) {
	if len(buf) == 0 {
		return 0, 1
	}
	lead := buf[0]
	var size int
	switch {
	case lead&0x80 == 0x00:
		return rune(lead), 1
	case lead&0xE0 == 0xC0:
		size = 2
	case lead&0xF0 == 0xE0:
		size = 3
	case lead&0xF8 == 0xF0:
		size = 4
	default:
		return rune(lead), 1
	}
	if len(buf) < size {
		return rune(lead), 1
	}
	r := rune(lead & (0xff >> uint(size+1)))
	for k := 1; k < size; k++ {
		r = r<<6 | rune(buf[k]&0x3f)
	}
	return r, size
}

// decodeCSI decodes a "\x1b[...final" sequence, returning the zero
// KeyEvent and 0 bytes consumed if it isn't one this driver recognizes.
func decodeCSI(buf []byte) (KeyEvent, int) {
	// buf[0]==ESC, buf[1]=='['
	j := 2
	for j < len(buf) && (buf[j] == ';' || (buf[j] >= '0' && buf[j] <= '9')) {
		j++
	}
	if j >= len(buf) {
		return KeyEvent{}, 0
	}
	final := buf[j]
	params := string(buf[2:j])

	var key Key
	switch final {
	case 'A':
		key = KeyArrowUp
	case 'B':
		key = KeyArrowDown
	case 'C':
		key = KeyArrowRight
	case 'D':
		key = KeyArrowLeft
	case 'H':
		key = KeyHome
	case 'F':
		key = KeyEnd
	case '~':
		switch params {
		case "1", "7":
			key = KeyHome
		case "4", "8":
			key = KeyEnd
		case "3":
			key = KeyDelete
		case "5":
			key = KeyPageUp
		case "6":
			key = KeyPageDown
		default:
			return KeyEvent{}, 0
		}
	default:
		return KeyEvent{}, 0
	}

	ev := KeyEvent{Key: key}
	applyModifier(&ev, params)
	return ev, j + 1
}

// applyModifier parses the trailing ";N" modifier code common to xterm
// CSI sequences: 2=Shift, 3=Alt, 5=Ctrl, 4/6/7/8 are their combinations.
func applyModifier(ev *KeyEvent, params string) {
	idx := -1
	for i := 0; i < len(params); i++ {
		if params[i] == ';' {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(params) {
		return
	}
	switch params[idx+1:] {
	case "2":
		ev.Shift = true
	case "3":
		ev.Alt = true
	case "4":
		ev.Shift, ev.Alt = true, true
	case "5":
		ev.Ctrl = true
	case "6":
		ev.Shift, ev.Ctrl = true, true
	case "7":
		ev.Alt, ev.Ctrl = true, true
	case "8":
		ev.Shift, ev.Alt, ev.Ctrl = true, true, true
	}
}
