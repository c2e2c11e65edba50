package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chunk represents a bounded, offset-tracked segment of a document's text.
// Chunks are the unit of embedding, indexing and retrieval. StartPos and
// EndPos are character positions into the source text (half-open interval
// [StartPos, EndPos)). Chunks are immutable after creation.
type Chunk struct {
	ChunkID     string    `json:"chunk_id"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	StartPos    int       `json:"start_pos"`
	EndPos      int       `json:"end_pos"`
	ChunkIndex  int       `json:"chunk_index"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// ChunkIDFor derives the stable chunk identifier from the owning document's
// RID and the chunk's sequence index. Re-chunking the same document yields
// the same IDs, which makes index upserts idempotent.
func ChunkIDFor(documentRID uuid.UUID, index int) string {
	return fmt.Sprintf("%s_%d", documentRID.String(), index)
}
