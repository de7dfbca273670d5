package rag

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits documents into overlapping passages.
type Chunker struct {
	// Size is the target passage length in characters (default: 800).
	Size int
	// Overlap is how many trailing characters of a passage are repeated at
	// the start of the next one.
	Overlap int
}

// DefaultChunker returns 800-character passages with 100 characters of overlap.
func DefaultChunker() Chunker {
	return Chunker{Size: 800, Overlap: 100}
}

var separators = []string{"\n\n", "\n", ". ", " "}

// Split breaks text into passages of at most Size characters, preferring
// paragraph, line, sentence and word boundaries in that order.
func (c Chunker) Split(text string) []string {
	size, overlap := c.Size, c.Overlap
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			if p := strings.TrimSpace(string(runes[start:])); p != "" {
				out = append(out, p)
			}
			break
		}
		end = breakPoint(runes, start, end)
		if p := strings.TrimSpace(string(runes[start:end])); p != "" {
			out = append(out, p)
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// breakPoint returns the latest boundary in runes[start:end] that lies past
// the middle of the window, or end when none does.
func breakPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := (end - start) / 2
	for _, sep := range separators {
		i := strings.LastIndex(window, sep)
		if i < 0 {
			continue
		}
		at := utf8.RuneCountInString(window[:i]) + utf8.RuneCountInString(sep)
		if at > half {
			return start + at
		}
	}
	return end
}
