// Package clipboard implements spec §3's two opaque clipboard operations
// (read/write an octet string), backed either by OS clipboard pipes or,
// when no such pipe is available, by an OSC52 terminal escape sequence.
package clipboard

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/aymanbagabas/go-osc52/v2"
)

// MaxBytes is the clipboard cap named in spec §4.6 ("clipboard cap 8 MiB").
const MaxBytes = 8 * 1024 * 1024

// ErrTooLarge is returned by Write when data exceeds MaxBytes.
var ErrTooLarge = errors.New("clipboard: payload exceeds 8 MiB cap")

// Clipboard is the editor's view of the system clipboard (spec §3).
type Clipboard interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// pipeCmd names the read/write subprocess for one clipboard backend.
type pipeCmd struct {
	writeName string
	writeArgs []string
	readName  string
	readArgs  []string
}

// osBackends lists candidate OS-pipe clipboard tools in priority order,
// mirroring the approach a cross-platform CLI editor takes: try each
// known tool's write command once at startup and keep the first that
// exists on PATH.
func osBackends() []pipeCmd {
	switch runtime.GOOS {
	case "darwin":
		return []pipeCmd{{writeName: "pbcopy", readName: "pbpaste"}}
	case "windows":
		return []pipeCmd{{writeName: "clip", readName: "powershell", readArgs: []string{"-command", "Get-Clipboard"}}}
	default:
		return []pipeCmd{
			{writeName: "wl-copy", readName: "wl-paste", readArgs: []string{"-n"}},
			{writeName: "xclip", writeArgs: []string{"-selection", "clipboard"}, readName: "xclip", readArgs: []string{"-selection", "clipboard", "-o"}},
			{writeName: "xsel", writeArgs: []string{"--clipboard", "--input"}, readName: "xsel", readArgs: []string{"--clipboard", "--output"}},
		}
	}
}

// pipeClipboard shells out to an OS clipboard utility for both read and
// write (spec §7's "clipboard subprocess" IO error surface).
type pipeClipboard struct {
	cmd pipeCmd
}

func (p *pipeClipboard) Write(data []byte) error {
	if len(data) > MaxBytes {
		return ErrTooLarge
	}
	cmd := exec.Command(p.cmd.writeName, p.cmd.writeArgs...)
	cmd.Stdin = bytes.NewReader(data)
	return cmd.Run()
}

func (p *pipeClipboard) Read() ([]byte, error) {
	cmd := exec.Command(p.cmd.readName, p.cmd.readArgs...)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	if len(out) > MaxBytes {
		out = out[:MaxBytes]
	}
	return out, nil
}

// termClipboard writes via an OSC52 escape sequence to w (the terminal),
// for environments with no OS clipboard pipe (e.g. over SSH). OSC52 has
// no standard read-back channel, so Read always fails.
type termClipboard struct {
	w io.Writer
}

func (t *termClipboard) Write(data []byte) error {
	if len(data) > MaxBytes {
		return ErrTooLarge
	}
	_, err := osc52.New(string(data)).WriteTo(t.w)
	return err
}

func (t *termClipboard) Read() ([]byte, error) {
	return nil, errors.New("clipboard: OSC52 backend does not support read")
}

// New picks an OS-pipe backend whose write command resolves on PATH,
// falling back to an OSC52 terminal backend bound to stdout.
func New() Clipboard {
	for _, cmd := range osBackends() {
		if _, err := exec.LookPath(cmd.writeName); err == nil {
			return &pipeClipboard{cmd: cmd}
		}
	}
	return &termClipboard{w: os.Stdout}
}
