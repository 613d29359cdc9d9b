// Package segmenter splits answer text into short, speakable segments so
// synthesis can start before the whole answer is processed.
package segmenter

import "strings"

// maxSegmentWords is the soft bound on segment length. A segment closes at
// this many words or at sentence-terminating punctuation, whichever comes
// first.
const maxSegmentWords = 12

// Segment is one independently synthesizable unit of the answer text.
// Indices are contiguous from 0 in original reading order.
type Segment struct {
	Index int
	Text  string
}

// Split tokenizes text on whitespace and groups tokens into segments. It is
// pure and deterministic. Empty or all-whitespace input yields no segments.
func Split(text string) []Segment {
	words := strings.Fields(text)

	var segments []Segment
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  strings.Join(buf, " "),
		})
		buf = buf[:0]
	}

	for _, word := range words {
		buf = append(buf, word)
		if len(buf) >= maxSegmentWords || endsSentence(word) {
			flush()
		}
	}
	flush()

	return segments
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "?") ||
		strings.HasSuffix(word, "!")
}
