// Package splitter breaks long text into overlapping fixed-size chunks.
package splitter

// Splitter splits text into chunks of at most ChunkSize runes, with
// ChunkOverlap runes carried over between consecutive chunks. Cut points
// prefer paragraph breaks, then line breaks, then spaces, then a hard cut.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a Splitter. chunkOverlap must be smaller than
// chunkSize; callers validate via config.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Split breaks text into chunks. Text no longer than the chunk size is
// returned as a single chunk. Lengths are counted in runes so multi-byte
// content never splits mid-character.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := s.findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - s.chunkOverlap
	}

	return chunks
}

// findCut picks the best split position in (start+overlap, end]. The
// lower bound guarantees forward progress after the overlap is rewound.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	min := start + s.chunkOverlap + 1

	// Paragraph break
	for i := end - 2; i >= min; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i
		}
	}
	// Line break
	for i := end - 1; i >= min; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	// Space
	for i := end - 1; i >= min; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	// Hard cut
	return end
}
