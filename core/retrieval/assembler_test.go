package retrieval

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultFor(chunkID string, docRID uuid.UUID, source string, startPos int, endPos int, similarity float64) *model.RetrievalResult {
	runes := []rune(source)
	return &model.RetrievalResult{
		Chunk: &model.Chunk{
			ChunkID:     chunkID,
			DocumentRID: docRID,
			Content:     string(runes[startPos:endPos]),
			StartPos:    startPos,
			EndPos:      endPos,
			Similarity:  similarity,
		},
		Similarity: similarity,
	}
}

func TestAssembleContext(t *testing.T) {
	docA := uuid.New()
	docB := uuid.New()
	source := "The quick brown fox jumps over the lazy dog and keeps on running through the quiet forest."

	t.Run("Single chunk", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 20, 0.9),
		}

		assembled := AssembleContext(results, 1000)

		assert.Equal(t, source[:20], assembled.Text)
		assert.Equal(t, []string{"a_0"}, assembled.ChunkIDs)
	})

	t.Run("Overlapping chunks from the same document merge once", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 30, 0.9),
			resultFor("a_1", docA, source, 20, 50, 0.8),
		}

		assembled := AssembleContext(results, 1000)

		assert.Equal(t, source[:50], assembled.Text, "Expected overlapping text to appear exactly once")
		assert.Equal(t, []string{"a_0", "a_1"}, assembled.ChunkIDs)
		assert.NotContains(t, assembled.Text, SpanDelimiter)
	})

	t.Run("Adjacent chunks merge without delimiter", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 20, 0.9),
			resultFor("a_1", docA, source, 20, 40, 0.8),
		}

		assembled := AssembleContext(results, 1000)

		assert.Equal(t, source[:40], assembled.Text)
	})

	t.Run("Merge works regardless of retrieval order", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_1", docA, source, 20, 50, 0.9),
			resultFor("a_0", docA, source, 0, 30, 0.8),
		}

		assembled := AssembleContext(results, 1000)

		assert.Equal(t, source[:50], assembled.Text)
		assert.Equal(t, []string{"a_1", "a_0"}, assembled.ChunkIDs, "Expected chunk IDs in inclusion order")
	})

	t.Run("Disjoint spans are delimited", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 10, 0.9),
			resultFor("a_5", docA, source, 50, 60, 0.8),
		}

		assembled := AssembleContext(results, 1000)

		parts := strings.Split(assembled.Text, SpanDelimiter)
		require.Equal(t, 2, len(parts))
		assert.Equal(t, source[0:10], parts[0])
		assert.Equal(t, source[50:60], parts[1])
	})

	t.Run("Same offsets in different documents never merge", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 20, 0.9),
			resultFor("b_0", docB, source, 0, 20, 0.8),
		}

		assembled := AssembleContext(results, 1000)

		parts := strings.Split(assembled.Text, SpanDelimiter)
		assert.Equal(t, 2, len(parts))
	})

	t.Run("Budget is never exceeded", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 30, 0.9),
			resultFor("a_5", docA, source, 50, 80, 0.8),
			resultFor("a_8", docA, source, 85, 90, 0.7),
		}

		for _, budget := range []int{10, 30, 40, 70, 80, 200} {
			assembled := AssembleContext(results, budget)
			assert.LessOrEqual(t, len([]rune(assembled.Text)), budget,
				"Expected assembled context to stay within budget %d", budget)
		}
	})

	t.Run("Chunk over budget is skipped, later smaller chunk still fits", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 40, 0.9),
			resultFor("a_8", docA, source, 85, 90, 0.8),
		}

		assembled := AssembleContext(results, 10)

		assert.Equal(t, source[85:90], assembled.Text)
		assert.Equal(t, []string{"a_8"}, assembled.ChunkIDs)
	})

	t.Run("No chunk fits yields empty context", func(t *testing.T) {
		results := []*model.RetrievalResult{
			resultFor("a_0", docA, source, 0, 40, 0.9),
		}

		assembled := AssembleContext(results, 5)

		assert.Empty(t, assembled.Text)
		assert.Empty(t, assembled.ChunkIDs)
	})

	t.Run("Empty retrieval yields empty context", func(t *testing.T) {
		assembled := AssembleContext(nil, 1000)

		assert.Empty(t, assembled.Text)
		assert.Empty(t, assembled.ChunkIDs)
	})
}
