package index

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/model"
)

// VectorIndex is the capability the retrieval engine depends on. An
// implementation may be in-process or backed by an external service; the
// engine only relies on this contract.
//
// Upsert replaces the vector and metadata of an already-indexed chunk ID
// (idempotent). Query returns up to topK chunks ordered by descending
// cosine similarity, ties broken by ascending chunk ID; the Similarity
// field is set on every returned chunk. A non-empty documentRIDs list
// restricts the search to chunks of those documents; nil searches the
// whole index. Querying an empty index returns an empty result. A
// dimension mismatch on either operation fails with
// helper.ErrDimensionMismatch.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []*model.Chunk) error
	Query(ctx context.Context, embedding []float32, topK int, documentRIDs []uuid.UUID) ([]*model.Chunk, error)
	DeleteByDocument(ctx context.Context, documentRID uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

// Stats describes the current contents of a vector index
type Stats struct {
	TotalEntries   int            `json:"total_entries"`
	Dimension      int            `json:"dimension"`
	DocumentCounts map[string]int `json:"document_counts"`
}
