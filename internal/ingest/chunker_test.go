package ingest

import (
	"strings"
	"testing"
)

func TestChunkTextBasic(t *testing.T) {
	text := strings.Repeat("a", 10)
	windows := ChunkText(text, 4, 1)

	if len(windows) != 4 {
		t.Fatalf("got %d windows, want 4", len(windows))
	}
	wantStarts := []int{0, 3, 6, 9}
	wantEnds := []int{4, 7, 10, 10}
	for i, w := range windows {
		if w.Start != wantStarts[i] || w.End != wantEnds[i] {
			t.Errorf("window %d = [%d,%d), want [%d,%d)", i, w.Start, w.End, wantStarts[i], wantEnds[i])
		}
	}
}

func TestChunkTextShortInput(t *testing.T) {
	windows := ChunkText("short", 100, 10)
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].Text != "short" || windows[0].Start != 0 || windows[0].End != 5 {
		t.Errorf("unexpected window %+v", windows[0])
	}
}

func TestChunkTextEmptyAndWhitespace(t *testing.T) {
	if got := ChunkText("", 10, 2); got != nil {
		t.Errorf("empty text: got %v, want nil", got)
	}
	if got := ChunkText("   \n\t  ", 3, 1); len(got) != 0 {
		t.Errorf("whitespace text: got %d windows, want 0", len(got))
	}
}

func TestChunkTextTrimsButKeepsOffsets(t *testing.T) {
	windows := ChunkText("  ab  ", 6, 0)
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].Text != "ab" {
		t.Errorf("text = %q, want %q", windows[0].Text, "ab")
	}
	if windows[0].Start != 0 || windows[0].End != 6 {
		t.Errorf("offsets = [%d,%d), want [0,6)", windows[0].Start, windows[0].End)
	}
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	// Multi-byte runes must be counted as single units.
	text := "äöüß日本語テスト"
	windows := ChunkText(text, 4, 1)
	for _, w := range windows {
		if n := len([]rune(w.Text)); n > 4 {
			t.Errorf("window %q has %d runes, want <= 4", w.Text, n)
		}
	}
	if windows[0].Text != "äöüß" {
		t.Errorf("first window = %q, want %q", windows[0].Text, "äöüß")
	}
}

func TestChunkTextOverlapClamped(t *testing.T) {
	// overlap >= size would stall the walk; it must still terminate.
	windows := ChunkText(strings.Repeat("x", 50), 5, 5)
	if len(windows) == 0 {
		t.Fatal("expected windows")
	}
	last := windows[len(windows)-1]
	if last.End != 50 {
		t.Errorf("last window ends at %d, want 50", last.End)
	}
}

func TestChunkTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("b", 137)
	windows := ChunkText(text, 20, 6)

	if windows[0].Start != 0 {
		t.Errorf("first start = %d, want 0", windows[0].Start)
	}
	if windows[len(windows)-1].End != 137 {
		t.Errorf("last end = %d, want 137", windows[len(windows)-1].End)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Start > windows[i-1].End {
			t.Errorf("gap between window %d and %d", i-1, i)
		}
	}
}
