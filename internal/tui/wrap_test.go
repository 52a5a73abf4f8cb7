package tui

import (
	"strings"
	"testing"
)

func TestCosetIndexes(t *testing.T) {
	got := cosetIndexes([]rune("AB C,D"), 2)
	want := []int{0, 1, -1, 0, -1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestBuildStyledRunesSelection(t *testing.T) {
	text := []rune("AB C")
	runes := buildStyledRunes(text, cosetIndexes(text, 2), 1)
	if runes[0].s != plainStyle.Render("A") {
		t.Fatalf("expected plain style for other coset")
	}
	if runes[1].s != selectedCosetStyle.Render("B") {
		t.Fatalf("expected selected style for coset 1")
	}
	if runes[2].s != passThroughStyle.Render(" ") || !runes[2].isSpace {
		t.Fatalf("expected pass-through style for space")
	}
}

func TestWrapStyledRunesBreaksOnSpace(t *testing.T) {
	text := []rune("AAAA BBBB CC")
	runes := buildStyledRunes(text, cosetIndexes(text, 1), -1)
	out := wrapStyledRunes(runes, 6)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
}

func TestWrapStyledRunesHardBreak(t *testing.T) {
	text := []rune("ABCDEFG")
	runes := buildStyledRunes(text, cosetIndexes(text, 1), -1)
	lines := strings.Split(wrapStyledRunes(runes, 3), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}
