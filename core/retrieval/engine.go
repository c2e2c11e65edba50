package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/core/index"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

// Engine performs threshold-filtered vector retrieval against a VectorIndex
type Engine struct {
	index index.VectorIndex
}

// NewEngine creates a new retrieval engine
func NewEngine(idx index.VectorIndex) *Engine {
	return &Engine{index: idx}
}

// Retrieve queries the index for the maxResults most similar chunks and
// filters out everything scoring strictly below threshold, preserving the
// index's descending order. A non-empty documentRIDs list restricts
// retrieval to chunks of those documents; nil searches the whole index.
// An empty result is a valid outcome, not an error; the caller decides how
// to react to missing context.
func (e *Engine) Retrieve(ctx context.Context, embedding []float32, threshold float64, maxResults int, documentRIDs []uuid.UUID) ([]*model.RetrievalResult, error) {
	chunks, err := e.index.Query(ctx, embedding, maxResults, documentRIDs)
	if err != nil {
		return nil, helper.NewError("vector retrieve", err)
	}

	results := make([]*model.RetrievalResult, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Similarity < threshold {
			continue
		}
		results = append(results, &model.RetrievalResult{
			Chunk:      chunk,
			Similarity: chunk.Similarity,
		})
	}

	return results, nil
}
