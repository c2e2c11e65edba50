package retrieval

import (
	"sort"
	"strings"

	"github.com/siherrmann/docqa/model"
)

// SpanDelimiter visually separates unrelated spans in the assembled context
const SpanDelimiter = "\n---\n"

// contextSpan is a run of text from one document, built by merging chunks
// with overlapping or adjacent offsets so shared text appears only once.
// The invariant len(text) == endPos-startPos holds for every span.
type contextSpan struct {
	documentRID string
	startPos    int
	endPos      int
	text        []rune
}

// AssembleContext merges retrieved chunks into a single bounded context
// block. Chunks are considered in descending-similarity order; a chunk is
// skipped when adding it would push the rendered context past
// maxContextChars. Chunks from the same document with overlapping or
// adjacent offsets collapse into one span; spans are delimited and ordered
// by document and position for deterministic output. ChunkIDs lists the
// contributing chunks in the order they were included.
func AssembleContext(results []*model.RetrievalResult, maxContextChars int) *model.AssembledContext {
	var spans []*contextSpan
	var chunkIDs []string

	for _, result := range results {
		candidate := mergeChunk(spans, result.Chunk)
		if renderedLength(candidate) > maxContextChars {
			continue
		}
		spans = candidate
		chunkIDs = append(chunkIDs, result.Chunk.ChunkID)
	}

	return &model.AssembledContext{
		Text:     render(spans),
		ChunkIDs: chunkIDs,
	}
}

// mergeChunk returns a new span set with the chunk merged in, leaving the
// input untouched so callers can discard the candidate when it busts the budget
func mergeChunk(spans []*contextSpan, chunk *model.Chunk) []*contextSpan {
	piece := &contextSpan{
		documentRID: chunk.DocumentRID.String(),
		startPos:    chunk.StartPos,
		endPos:      chunk.EndPos,
		text:        []rune(chunk.Content),
	}

	var kept []*contextSpan
	overlapping := []*contextSpan{piece}
	for _, span := range spans {
		if span.documentRID == piece.documentRID && span.endPos >= piece.startPos && span.startPos <= piece.endPos {
			overlapping = append(overlapping, span)
		} else {
			kept = append(kept, span)
		}
	}

	sort.Slice(overlapping, func(i, j int) bool {
		return overlapping[i].startPos < overlapping[j].startPos
	})

	merged := &contextSpan{
		documentRID: piece.documentRID,
		startPos:    overlapping[0].startPos,
		endPos:      overlapping[0].endPos,
		text:        append([]rune(nil), overlapping[0].text...),
	}
	for _, next := range overlapping[1:] {
		if next.endPos > merged.endPos {
			merged.text = append(merged.text, next.text[merged.endPos-next.startPos:]...)
			merged.endPos = next.endPos
		}
	}

	return append(kept, merged)
}

// renderedLength computes the character length of the rendered context
// without building the string
func renderedLength(spans []*contextSpan) int {
	if len(spans) == 0 {
		return 0
	}
	length := len(SpanDelimiter) * (len(spans) - 1)
	for _, span := range spans {
		length += len(span.text)
	}
	return length
}

// render joins the spans ordered by document and position
func render(spans []*contextSpan) string {
	ordered := append([]*contextSpan(nil), spans...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].documentRID != ordered[j].documentRID {
			return ordered[i].documentRID < ordered[j].documentRID
		}
		return ordered[i].startPos < ordered[j].startPos
	})

	parts := make([]string, len(ordered))
	for i, span := range ordered {
		parts[i] = string(span.text)
	}
	return strings.Join(parts, SpanDelimiter)
}
