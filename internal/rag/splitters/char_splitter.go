package splitters

import (
	"strings"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
)

// CharacterSplitter implements the Splitter interface by walking the text in
// fixed-size character windows, preferring to end each window on a word
// boundary. Consecutive chunks share Overlap characters of context.
type CharacterSplitter struct {
	ChunkSize int
	Overlap   int
	Backoff   int // how far back from the window end to scan for a space
}

// NewCharacterSplitter creates a CharacterSplitter. Non-positive arguments
// fall back to the defaults (1000/200/100).
func NewCharacterSplitter(chunkSize, overlap, backoff int) *CharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 200
	}
	if backoff <= 0 {
		backoff = 100
	}
	return &CharacterSplitter{ChunkSize: chunkSize, Overlap: overlap, Backoff: backoff}
}

// Split divides text into overlapping chunks. Empty text yields no chunks.
// Each chunk is trimmed of surrounding whitespace and empty chunks are
// dropped. The window start always advances, so overlap >= chunkSize cannot
// loop forever.
func (s *CharacterSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Not the final window: back off to the last space within reach
			// so words are not cut in half. The cut must land strictly after
			// the window start or it is ignored.
			if cut := s.lastSpaceBefore(runes, start, end); cut > start {
				end = cut
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastSpaceBefore scans backward from end (exclusive) over at most Backoff
// characters and returns the index of the last space, or -1.
func (s *CharacterSplitter) lastSpaceBefore(runes []rune, start, end int) int {
	low := end - s.Backoff
	if low < start {
		low = start
	}
	for i := end - 1; i >= low; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

var _ interfaces.Splitter = (*CharacterSplitter)(nil)
