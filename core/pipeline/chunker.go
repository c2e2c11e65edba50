package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

// SlidingWindowChunker creates a chunker that advances a fixed-size window
// over the text with a step of size-overlap. Consecutive chunks from the
// same document share exactly overlap characters; the final chunk may be
// shorter than size and is never padded. Offsets are rune-exact.
// Invalid size/overlap settings fail at construction, before any text is
// processed.
func SlidingWindowChunker(size int, overlap int) (ChunkFunc, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", helper.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must satisfy 0 <= overlap < size, got overlap %d for size %d", helper.ErrConfiguration, overlap, size)
	}

	return func(text string) ([]Span, error) {
		runes := []rune(text)
		if len(runes) == 0 {
			return []Span{}, nil
		}

		step := size - overlap
		var spans []Span
		chunkIdx := 0

		for start := 0; start < len(runes); start += step {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}

			spans = append(spans, Span{
				Content:    string(runes[start:end]),
				StartPos:   start,
				EndPos:     end,
				ChunkIndex: chunkIdx,
				Metadata: model.Metadata{
					"chunking_method": "sliding_window",
					"chunk_size":      size,
					"chunk_overlap":   overlap,
				},
			})
			chunkIdx++

			// Last window consumed the remainder of the text
			if end == len(runes) {
				break
			}
		}

		return spans, nil
	}, nil
}

// ParagraphChunker creates a chunker that splits by blank lines.
// Offsets point at the trimmed paragraph text within the source.
func ParagraphChunker() ChunkFunc {
	return func(text string) ([]Span, error) {
		var spans []Span
		pos := 0
		chunkIdx := 0

		for _, para := range strings.Split(text, "\n\n") {
			paraRunes := []rune(para)

			trimmed := strings.TrimSpace(para)
			if trimmed != "" {
				leading := len(paraRunes) - len([]rune(strings.TrimLeft(para, " \t\n\r")))
				startPos := pos + leading
				endPos := startPos + len([]rune(trimmed))

				spans = append(spans, Span{
					Content:    trimmed,
					StartPos:   startPos,
					EndPos:     endPos,
					ChunkIndex: chunkIdx,
					Metadata: model.Metadata{
						"chunking_method": "paragraph",
					},
				})
				chunkIdx++
			}

			// Account for the paragraph itself and the "\n\n" separator
			pos += len(paraRunes) + 2
		}

		return spans, nil
	}
}
