package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

// Span represents a chunk of text with exact character offsets into the
// source. Offsets are rune positions, half-open interval [StartPos, EndPos).
type Span struct {
	Content    string
	StartPos   int
	EndPos     int
	ChunkIndex int
	Metadata   model.Metadata
}

// ChunkFunc is a function that splits document text into spans.
// It must be a pure function of its input.
type ChunkFunc func(text string) ([]Span, error)

// EmbedFunc is a function that generates embeddings for a batch of texts,
// one vector per input, order-preserving. A batch fails as a whole; partial
// results are never returned.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker   ChunkFunc
	Embedder  EmbedFunc
	Dimension int
}

// NewPipeline creates a new processing pipeline. Dimension is the expected
// embedding dimension, enforced on every embedder output.
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc, dimension int) *Pipeline {
	return &Pipeline{
		Chunker:   chunker,
		Embedder:  embedder,
		Dimension: dimension,
	}
}

// Process splits a document's text into chunks and embeds all chunk texts
// in a single batch. Chunk IDs are derived from the document RID and the
// chunk index, so reprocessing a document yields the same IDs. Process
// performs no index writes; a failure at any stage leaves the index untouched.
func (p *Pipeline) Process(ctx context.Context, doc *model.Document) ([]*model.Chunk, error) {
	spans, err := p.Chunker(doc.Content)
	if err != nil {
		return nil, helper.NewError("chunk document", err)
	}

	if len(spans) == 0 {
		return []*model.Chunk{}, nil
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Content
	}

	embeddings, err := p.Embedder(ctx, texts)
	if err != nil {
		return nil, helper.NewError("embed chunks", err)
	}
	if len(embeddings) != len(spans) {
		return nil, helper.NewError("embed chunks", fmt.Errorf("%w: got %d embeddings for %d chunks", helper.ErrEmbedding, len(embeddings), len(spans)))
	}

	chunks := make([]*model.Chunk, 0, len(spans))
	for i, span := range spans {
		if len(embeddings[i]) != p.Dimension {
			return nil, helper.NewError("embed chunks", fmt.Errorf("%w: expected dimension %d, got %d for chunk %d", helper.ErrDimensionMismatch, p.Dimension, len(embeddings[i]), i))
		}

		chunks = append(chunks, &model.Chunk{
			ChunkID:     model.ChunkIDFor(doc.RID, span.ChunkIndex),
			DocumentID:  doc.ID,
			DocumentRID: doc.RID,
			Content:     span.Content,
			Embedding:   embeddings[i],
			StartPos:    span.StartPos,
			EndPos:      span.EndPos,
			ChunkIndex:  span.ChunkIndex,
			Metadata:    span.Metadata,
		})
	}

	return chunks, nil
}

// EmbedQuery embeds a single query string using the pipeline's embedder
func (p *Pipeline) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := p.Embedder(ctx, []string{query})
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	if len(embeddings) != 1 {
		return nil, helper.NewError("embed query", fmt.Errorf("%w: got %d embeddings for one query", helper.ErrEmbedding, len(embeddings)))
	}
	if len(embeddings[0]) != p.Dimension {
		return nil, helper.NewError("embed query", fmt.Errorf("%w: expected dimension %d, got %d", helper.ErrDimensionMismatch, p.Dimension, len(embeddings[0])))
	}
	return embeddings[0], nil
}
