package splitters

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewCharacterSplitter(1000, 200, 100)
	if chunks := s.Split(""); chunks != nil {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
	if chunks := s.Split("   \n\t  "); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace-only text, got %d", len(chunks))
	}
}

func TestSplitShortText(t *testing.T) {
	s := NewCharacterSplitter(1000, 200, 100)
	chunks := s.Split("  Ventas anuales: $120,000  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Ventas anuales: $120,000" {
		t.Errorf("chunk not trimmed: %q", chunks[0])
	}
}

func TestSplitPrefersWordBoundary(t *testing.T) {
	s := NewCharacterSplitter(10, 0, 5)
	chunks := s.Split("aaaa bbbb cccc")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "aaaa bbbb" {
		t.Errorf("first chunk should end at a word boundary, got %q", chunks[0])
	}
	if chunks[1] != "cccc" {
		t.Errorf("second chunk = %q, want %q", chunks[1], "cccc")
	}
}

func TestSplitCutsWordWhenNoSpaceInReach(t *testing.T) {
	s := NewCharacterSplitter(4, 0, 2)
	chunks := s.Split("abcdefgh")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "abcd" || chunks[1] != "efgh" {
		t.Errorf("chunks = %v, want [abcd efgh]", chunks)
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := NewCharacterSplitter(6, 2, 1)
	chunks := s.Split("abcdefghij")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	tail := chunks[0][len(chunks[0])-2:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("chunk 2 %q does not start with the overlap %q of chunk 1", chunks[1], tail)
	}
}

func TestSplitTerminatesWhenOverlapExceedsChunkSize(t *testing.T) {
	s := NewCharacterSplitter(4, 10, 2)
	done := make(chan []string, 1)
	go func() { done <- s.Split("abcdefghijklmnop") }()

	chunks := <-done
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite degenerate overlap")
	}
	// With overlap >= chunkSize the windows cannot advance through shared
	// context, so they must fall back to disjoint windows.
	joined := strings.Join(chunks, "")
	if joined != "abcdefghijklmnop" {
		t.Errorf("degenerate overlap should produce disjoint windows, got %v", chunks)
	}
}

func TestSplitMultibyteRunes(t *testing.T) {
	s := NewCharacterSplitter(5, 0, 2)
	chunks := s.Split("ññññññññññ")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if got := len([]rune(chunk)); got != 5 {
			t.Errorf("chunk %d has %d runes, want 5", i, got)
		}
	}
}
