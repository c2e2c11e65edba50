package model

// RetrievalResult represents a chunk retrieved for a query, paired with its
// cosine similarity score. Results are ephemeral and recomputed per query.
type RetrievalResult struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// AssembledContext is a single context block built from retrieved chunks,
// with the contributing chunk IDs in the order their text was included.
type AssembledContext struct {
	Text     string   `json:"text"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Answer is the result of answering one question against the index.
// When no chunk clears the similarity threshold, InsufficientContext is
// true, the generator was never invoked and Text holds a fixed fallback.
type Answer struct {
	Text                string   `json:"answer"`
	Confidence          float64  `json:"confidence"`
	SourceChunkIDs      []string `json:"source_chunk_ids,omitempty"`
	InsufficientContext bool     `json:"insufficient_context,omitempty"`
}

// IngestResult reports the outcome of ingesting a single document.
type IngestResult struct {
	DocumentRID string `json:"document_rid"`
	ChunkCount  int    `json:"chunk_count"`
}
