// Package chunker splits extracted text into retrieval-sized fragments.
// Splitting prefers paragraph breaks, then sentence ends, then falls back to
// a rune window, so fragments stay semantically coherent where possible.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the ordered fragments of text. Whitespace-only input yields
// no fragments.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for start := 0; start < len(runes); {
		end := start + c.size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := breakPoint(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// breakPoint finds the best split position at or before end: a paragraph
// break, else a sentence end, else the raw window edge. It never moves the
// cut into the first half of the window.
func breakPoint(runes []rune, start, end int) int {
	min := start + (end-start)/2

	for i := end; i > min; i-- {
		if runes[i-1] == '\n' && i < len(runes) && runes[i] == '\n' {
			return i
		}
	}
	for i := end; i > min; i-- {
		r := runes[i-1]
		if (r == '.' || r == '?' || r == '!') && (i == len(runes) || unicode.IsSpace(runes[i])) {
			return i
		}
	}
	return end
}
