package lsp

import (
	"reflect"
	"testing"
)

func TestDecodeWholeFrame(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte("Content-Length: 5\r\n\r\nhello"))
	frames := d.DecodeAll()
	if len(frames) != 1 || string(frames[0]) != "hello" {
		t.Fatalf("got %v", frames)
	}
}

func TestDecodeArbitraryChunking(t *testing.T) {
	whole := []byte("Content-Length: 5\r\n\r\nhello")
	chunkSizes := [][]int{
		{1, 1, 1, 1, len(whole) - 4},
		{len(whole)},
		{3, 3, 3, 3, 3, 3, len(whole) - 18},
		{len(whole), 0}, // trailing empty feed should be harmless
	}
	for _, sizes := range chunkSizes {
		d := &Decoder{}
		pos := 0
		for _, n := range sizes {
			end := pos + n
			if end > len(whole) {
				end = len(whole)
			}
			d.Feed(whole[pos:end])
			pos = end
		}
		frames := d.DecodeAll()
		if len(frames) != 1 || string(frames[0]) != "hello" {
			t.Fatalf("chunking %v: got %v", sizes, frames)
		}
	}
}

func TestDecodeAcceptsBothSeparators(t *testing.T) {
	for _, sep := range []string{"\r\n\r\n", "\n\n"} {
		d := &Decoder{}
		d.Feed([]byte("Content-Length: 2" + sep + "hi"))
		frames := d.DecodeAll()
		if len(frames) != 1 || string(frames[0]) != "hi" {
			t.Fatalf("sep %q: got %v", sep, frames)
		}
	}
}

func TestDecodeSkipsGarbageHeaders(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte("X-Junk: true\r\n\r\nContent-Length: 2\r\n\r\nhi"))
	frames := d.DecodeAll()
	if len(frames) != 1 || string(frames[0]) != "hi" {
		t.Fatalf("got %v", frames)
	}
}

func TestDecodeWaitsForFullBody(t *testing.T) {
	d := &Decoder{}
	d.Feed([]byte("Content-Length: 5\r\n\r\nhel"))
	if frames := d.DecodeAll(); len(frames) != 0 {
		t.Fatalf("expected no frames yet, got %v", frames)
	}
	d.Feed([]byte("lo"))
	frames := d.DecodeAll()
	if len(frames) != 1 || string(frames[0]) != "hello" {
		t.Fatalf("got %v", frames)
	}
}

func TestDecodeBoundsFramesPerPoll(t *testing.T) {
	d := &Decoder{}
	for i := 0; i < 40; i++ {
		d.Feed(Encode([]byte("x")))
	}
	frames := d.DecodeAll()
	if len(frames) != maxFramesPerPoll {
		t.Fatalf("expected %d frames, got %d", maxFramesPerPoll, len(frames))
	}
	remaining := d.DecodeAll()
	if len(remaining) != 40-maxFramesPerPoll {
		t.Fatalf("expected %d remaining frames, got %d", 40-maxFramesPerPoll, len(remaining))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	payload := []byte(`{"jsonrpc":"2.0"}`)
	d := &Decoder{}
	d.Feed(Encode(payload))
	frames := d.DecodeAll()
	if !reflect.DeepEqual(frames, [][]byte{payload}) {
		t.Fatalf("got %v", frames)
	}
}
