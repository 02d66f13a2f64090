package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"openjuris/types"
)

// Chunker splits text into embedding-sized spans along sentence boundaries.
// Offsets in the emitted chunks refer to the whitespace-normalized text, not
// the raw input.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

type span struct {
	start, end int
}

// Chunk splits text into chunks of at most the configured size, merging
// whole sentences greedily and carrying an overlap tail from each chunk into
// the next. A single sentence longer than the size limit is kept whole; it
// is never split mid-sentence.
func (c *Chunker) Chunk(text string) []types.TextChunk {
	norm := normalizeText(text)
	if norm == "" {
		return nil
	}

	sentences := splitSentences(norm)
	var chunks []types.TextChunk

	curStart := -1
	curEnd := 0
	emit := func() {
		chunks = append(chunks, types.TextChunk{
			Content:   norm[curStart:curEnd],
			Index:     len(chunks),
			StartChar: curStart,
			EndChar:   curEnd,
		})
	}

	for _, s := range sentences {
		if curStart < 0 {
			curStart, curEnd = s.start, s.end
			continue
		}
		if s.end-curStart <= c.size {
			curEnd = s.end
			continue
		}

		emit()

		// Next chunk starts inside the previous one's tail, pushed forward
		// to a word boundary so no word is cut.
		nextStart := s.start
		if c.overlap > 0 {
			ovStart := curEnd - c.overlap
			if ovStart > curStart {
				if idx := strings.IndexByte(norm[ovStart:curEnd], ' '); idx >= 0 {
					nextStart = ovStart + idx + 1
				}
			}
		}
		curStart, curEnd = nextStart, s.end
	}

	if curStart >= 0 {
		emit()
	}
	return chunks
}

// splitSentences finds sentence spans in normalized text. A boundary is a
// run of terminal punctuation followed by a space and an upper-case letter.
// Abbreviations like "No. 5" survive because a digit does not open a
// sentence.
func splitSentences(norm string) []span {
	var spans []span
	start := 0
	i := 0
	for i < len(norm) {
		if !isTerminal(norm[i]) {
			i++
			continue
		}

		j := i
		for j+1 < len(norm) && isTerminal(norm[j+1]) {
			j++
		}
		if j+1 < len(norm) && norm[j+1] == ' ' {
			r, _ := utf8.DecodeRuneInString(norm[j+2:])
			if unicode.IsUpper(r) {
				spans = append(spans, span{start: start, end: j + 1})
				start = j + 2
				i = j + 2
				continue
			}
		}
		i = j + 1
	}

	if start < len(norm) {
		spans = append(spans, span{start: start, end: len(norm)})
	}
	return spans
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// normalizeText collapses all whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
