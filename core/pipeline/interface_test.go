package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns deterministic vectors of the given dimension, derived
// from the text length so identical input yields identical output.
func fakeEmbedder(dimension int) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		embeddings := make([][]float32, len(texts))
		for i, text := range texts {
			vector := make([]float32, dimension)
			for j := range vector {
				vector[j] = float32(len(text)%10) + float32(j)
			}
			embeddings[i] = vector
		}
		return embeddings, nil
	}
}

func TestPipelineProcess(t *testing.T) {
	doc := &model.Document{
		ID:      1,
		RID:     uuid.New(),
		Title:   "Test Document",
		Content: "The quick brown fox jumps over the lazy dog. It was a sunny day.",
	}

	t.Run("Valid processing produces chunks with embeddings", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(8), 8)

		chunks, err := p.Process(context.Background(), doc)

		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		for i, chunk := range chunks {
			assert.Equal(t, model.ChunkIDFor(doc.RID, i), chunk.ChunkID)
			assert.Equal(t, doc.ID, chunk.DocumentID)
			assert.Equal(t, doc.RID, chunk.DocumentRID)
			assert.Equal(t, 8, len(chunk.Embedding))
			assert.Equal(t, i, chunk.ChunkIndex)
			assert.NotEmpty(t, chunk.Content)
		}
	})

	t.Run("Reprocessing yields the same chunk IDs", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(8), 8)

		first, err := p.Process(context.Background(), doc)
		require.NoError(t, err)
		second, err := p.Process(context.Background(), doc)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
			assert.Equal(t, first[i].Embedding, second[i].Embedding)
		}
	})

	t.Run("Empty content yields no chunks", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(8), 8)

		chunks, err := p.Process(context.Background(), &model.Document{RID: uuid.New()})

		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Error on embedding dimension mismatch", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(4), 8)

		_, err := p.Process(context.Background(), doc)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrDimensionMismatch))
	})

	t.Run("Error on embedding count mismatch", func(t *testing.T) {
		shortEmbedder := func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{make([]float32, 8)}, nil
		}
		p := NewPipeline(slidingWindowChunker(t, 20, 5), shortEmbedder, 8)

		_, err := p.Process(context.Background(), doc)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrEmbedding))
	})

	t.Run("Embedder failure produces no chunks", func(t *testing.T) {
		failingEmbedder := func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fmt.Errorf("%w: model unavailable", helper.ErrEmbedding)
		}
		p := NewPipeline(slidingWindowChunker(t, 20, 5), failingEmbedder, 8)

		chunks, err := p.Process(context.Background(), doc)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrEmbedding))
		assert.Nil(t, chunks)
	})

	t.Run("Chunker failure produces no chunks", func(t *testing.T) {
		failingChunker := func(text string) ([]Span, error) {
			return nil, fmt.Errorf("%w: chunker misconfigured", helper.ErrConfiguration)
		}
		p := NewPipeline(failingChunker, fakeEmbedder(8), 8)

		chunks, err := p.Process(context.Background(), doc)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrConfiguration))
		assert.Nil(t, chunks)
	})
}

func TestPipelineEmbedQuery(t *testing.T) {
	t.Run("Valid query embedding", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(8), 8)

		embedding, err := p.EmbedQuery(context.Background(), "what is this about?")

		require.NoError(t, err)
		assert.Equal(t, 8, len(embedding))
	})

	t.Run("Error on dimension mismatch", func(t *testing.T) {
		p := NewPipeline(slidingWindowChunker(t, 20, 5), fakeEmbedder(4), 8)

		_, err := p.EmbedQuery(context.Background(), "query")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrDimensionMismatch))
	})
}

func TestOpenAIEmbedderValidation(t *testing.T) {
	t.Run("Error with empty API key", func(t *testing.T) {
		_, _, err := OpenAIEmbedder("", "text-embedding-3-small")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrConfiguration))
	})

	t.Run("Error with unknown model", func(t *testing.T) {
		_, _, err := OpenAIEmbedder("test-key", "not-a-model")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, helper.ErrConfiguration))
	})

	t.Run("Known models report their dimension", func(t *testing.T) {
		_, dimension, err := OpenAIEmbedder("test-key", "text-embedding-3-small")

		require.NoError(t, err)
		assert.Equal(t, 1536, dimension)
	})
}
