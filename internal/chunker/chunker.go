// Package chunker splits normalised text into overlapping fixed-size windows.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultSize is the default number of characters per window.
const DefaultSize = 800

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 150

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses consecutive whitespace to a single
// space and trims the edges.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// Window is one chunk of text with its position in the scan.
type Window struct {
	Seq  int
	Text string
}

// Chunk normalises text and splits it into windows of size characters,
// each starting overlap characters before the previous window's end.
// A non-positive size yields the whole text as a single window.
// Overlap is clamped to size/4 when it would reach size, so the scan
// always terminates.
func Chunk(text string, size, overlap int) []Window {
	text = NormalizeWhitespace(text)
	if text == "" {
		return nil
	}

	if size <= 0 {
		return []Window{{Seq: 0, Text: text}}
	}

	if overlap >= size {
		overlap = size / 4
	}
	if overlap < 0 {
		overlap = 0
	}

	n := len(text)
	windows := make([]Window, 0, n/(size-overlap)+1)

	start := 0
	seq := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		windows = append(windows, Window{Seq: seq, Text: text[start:end]})
		seq++
		if end == n {
			break
		}
		start = end - overlap
	}

	return windows
}
