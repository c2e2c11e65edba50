package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

// MemoryIndex is an in-process vector index using exact brute-force cosine
// similarity. It is safe for concurrent use; upserts are serialized while
// queries run concurrently against a read lock.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]*model.Chunk
}

// NewMemoryIndex creates an empty in-memory index for vectors of the given dimension
func NewMemoryIndex(dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, helper.NewError("create memory index", fmt.Errorf("%w: dimension must be positive, got %d", helper.ErrConfiguration, dimension))
	}
	return &MemoryIndex{
		dimension: dimension,
		entries:   make(map[string]*model.Chunk),
	}, nil
}

// Upsert inserts or replaces chunks by chunk ID
func (m *MemoryIndex) Upsert(ctx context.Context, chunks []*model.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != m.dimension {
			return helper.NewError("upsert", fmt.Errorf("%w: expected dimension %d, got %d for chunk %s", helper.ErrDimensionMismatch, m.dimension, len(chunk.Embedding), chunk.ChunkID))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return helper.NewError("upsert", err)
		}
		stored := *chunk
		stored.Embedding = append([]float32(nil), chunk.Embedding...)
		stored.Similarity = 0
		m.entries[chunk.ChunkID] = &stored
	}

	return nil
}

// Query returns the topK most similar chunks, descending by cosine
// similarity, ties broken by ascending chunk ID. A non-empty documentRIDs
// list restricts the search to chunks of those documents.
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, topK int, documentRIDs []uuid.UUID) ([]*model.Chunk, error) {
	if len(embedding) != m.dimension {
		return nil, helper.NewError("query", fmt.Errorf("%w: expected dimension %d, got %d", helper.ErrDimensionMismatch, m.dimension, len(embedding)))
	}
	if err := ctx.Err(); err != nil {
		return nil, helper.NewError("query", err)
	}

	scope := make(map[uuid.UUID]bool, len(documentRIDs))
	for _, rid := range documentRIDs {
		scope[rid] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*model.Chunk, 0, len(m.entries))
	for _, entry := range m.entries {
		if len(scope) > 0 && !scope[entry.DocumentRID] {
			continue
		}
		result := *entry
		result.Embedding = append([]float32(nil), entry.Embedding...)
		result.Similarity = float64(CosineSimilarity(embedding, entry.Embedding))
		results = append(results, &result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}

	return results, nil
}

// DeleteByDocument removes all chunks belonging to a document
func (m *MemoryIndex) DeleteByDocument(ctx context.Context, documentRID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range m.entries {
		if entry.DocumentRID == documentRID {
			delete(m.entries, id)
		}
	}

	return nil
}

// Stats returns entry counts for the index
func (m *MemoryIndex) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		TotalEntries:   len(m.entries),
		Dimension:      m.dimension,
		DocumentCounts: make(map[string]int),
	}
	for _, entry := range m.entries {
		stats.DocumentCounts[entry.DocumentRID.String()]++
	}

	return stats, nil
}

// CosineSimilarity calculates the cosine similarity between two embedding
// vectors. Returns a value between -1 and 1, where 1 means identical
// direction; zero-norm vectors yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
