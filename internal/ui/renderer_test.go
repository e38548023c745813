package ui

import "testing"

func TestClipToDisplayWidthStopsAtTabBoundary(t *testing.T) {
	clipped, consumed := clipToDisplayWidth([]byte("ab\tcd"), 4, 8)
	if string(clipped) != "ab\t" {
		t.Fatalf("got clipped=%q, want %q", clipped, "ab\t")
	}
	if consumed != 3 {
		t.Fatalf("got consumed=%d, want 3", consumed)
	}
}

func TestClipToDisplayWidthPlainASCII(t *testing.T) {
	clipped, consumed := clipToDisplayWidth([]byte("hello world"), 5, 8)
	if string(clipped) != "hello" || consumed != 5 {
		t.Fatalf("got clipped=%q consumed=%d", clipped, consumed)
	}
}

func TestMarkRangeClampsToSliceBounds(t *testing.T) {
	overlay := make([]int, 5)
	markRange(overlay, -2, 3, 7)
	want := []int{7, 7, 7, 0, 0}
	for i := range want {
		if overlay[i] != want[i] {
			t.Fatalf("got overlay=%v, want %v", overlay, want)
		}
	}
}

func TestCodepointLenMultiByte(t *testing.T) {
	// 'é' encoded as 0xC3 0xA9, a 2-byte lead.
	if got := codepointLen(0xC3); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestTruncateDisplay(t *testing.T) {
	if got := truncateDisplay("hello world", 5); got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
	if got := truncateDisplay("hi", 5); got != "hi" {
		t.Fatalf("got %q, want hi", got)
	}
}
