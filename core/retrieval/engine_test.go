package retrieval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/core/index"
	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initEngine(t *testing.T, chunks []*model.Chunk) *Engine {
	idx, err := index.NewMemoryIndex(2)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(context.Background(), chunks))
	return NewEngine(idx)
}

func TestEngineRetrieve(t *testing.T) {
	ctx := context.Background()
	docRID := uuid.New()

	chunks := []*model.Chunk{
		{ChunkID: "exact", DocumentRID: docRID, Content: "exact match", Embedding: []float32{1, 0}},
		{ChunkID: "close", DocumentRID: docRID, Content: "close match", Embedding: []float32{1, 0.5}},
		{ChunkID: "orthogonal", DocumentRID: docRID, Content: "unrelated", Embedding: []float32{0, 1}},
	}

	t.Run("Filters results below threshold", func(t *testing.T) {
		engine := initEngine(t, chunks)

		results, err := engine.Retrieve(ctx, []float32{1, 0}, 0.3, 10, nil)

		require.NoError(t, err)
		require.Equal(t, 2, len(results))
		for _, result := range results {
			assert.GreaterOrEqual(t, result.Similarity, 0.3, "Expected no result below the threshold")
		}
		assert.Equal(t, "exact", results[0].Chunk.ChunkID)
		assert.Equal(t, "close", results[1].Chunk.ChunkID)
	})

	t.Run("Results scoring exactly the threshold are kept", func(t *testing.T) {
		engine := initEngine(t, chunks)

		// The orthogonal chunk scores exactly 0
		results, err := engine.Retrieve(ctx, []float32{1, 0}, 0.0, 10, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, len(results))
	})

	t.Run("Max results caps retrieval", func(t *testing.T) {
		engine := initEngine(t, chunks)

		results, err := engine.Retrieve(ctx, []float32{1, 0}, 0.0, 1, nil)

		require.NoError(t, err)
		require.Equal(t, 1, len(results))
		assert.Equal(t, "exact", results[0].Chunk.ChunkID)
	})

	t.Run("Nothing above threshold returns empty result without error", func(t *testing.T) {
		engine := initEngine(t, chunks)

		results, err := engine.Retrieve(ctx, []float32{0, 1}, 0.99, 10, nil)

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Empty index returns empty result", func(t *testing.T) {
		engine := initEngine(t, nil)

		results, err := engine.Retrieve(ctx, []float32{1, 0}, 0.3, 10, nil)

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Error on dimension mismatch", func(t *testing.T) {
		engine := initEngine(t, chunks)

		_, err := engine.Retrieve(ctx, []float32{1, 0, 0}, 0.3, 10, nil)

		assert.Error(t, err)
	})

	t.Run("Document scope restricts retrieval", func(t *testing.T) {
		otherRID := uuid.New()
		scoped := append(chunks, &model.Chunk{ChunkID: "other_exact", DocumentRID: otherRID, Content: "exact match elsewhere", Embedding: []float32{1, 0}})
		engine := initEngine(t, scoped)

		results, err := engine.Retrieve(ctx, []float32{1, 0}, 0.0, 10, []uuid.UUID{otherRID})

		require.NoError(t, err)
		require.Equal(t, 1, len(results))
		assert.Equal(t, "other_exact", results[0].Chunk.ChunkID)
	})
}
