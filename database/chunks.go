package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/docqa/core/index"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	loadSql "github.com/siherrmann/docqa/sql"
)

// ChunksDBHandler stores chunks and their embeddings in Postgres with
// pgvector and implements index.VectorIndex on top of it. Similarity search
// runs in the database via the cosine distance operator.
type ChunksDBHandler struct {
	db        *helper.Database
	dimension int
}

// Compile-time check that the handler satisfies the index contract.
var _ index.VectorIndex = &ChunksDBHandler{}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("%w: embedding dimension must be positive, got %v", helper.ErrConfiguration, embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:        db,
		dimension: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// Upsert inserts or replaces the given chunks keyed by their chunk ID.
// All chunks are written in a single transaction, so a failure leaves the
// index without any of them. Every embedding is validated against the
// configured dimension before the transaction starts.
func (h *ChunksDBHandler) Upsert(ctx context.Context, chunks []*model.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != h.dimension {
			return helper.NewError("embedding validation", fmt.Errorf("%w: chunk %v has dimension %v, index expects %v", helper.ErrDimensionMismatch, chunk.ChunkID, len(chunk.Embedding), h.dimension))
		}
	}

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			chunk.ChunkID,
			chunk.DocumentID,
			chunk.DocumentRID,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.StartPos,
			chunk.EndPos,
			chunk.ChunkIndex,
			chunk.Metadata,
		)

		var id int64
		var embedding pgvector.Vector
		err := row.Scan(
			&id,
			&chunk.ChunkID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.Content,
			&embedding,
			&chunk.StartPos,
			&chunk.EndPos,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// Query returns up to topK chunks ordered by descending cosine similarity
// to the given embedding, ties broken by ascending chunk ID. The Similarity
// field is set on every returned chunk. A non-empty documentRIDs list
// restricts the search to chunks of those documents.
func (h *ChunksDBHandler) Query(ctx context.Context, embedding []float32, topK int, documentRIDs []uuid.UUID) ([]*model.Chunk, error) {
	if len(embedding) != h.dimension {
		return nil, helper.NewError("embedding validation", fmt.Errorf("%w: query has dimension %v, index expects %v", helper.ErrDimensionMismatch, len(embedding), h.dimension))
	}
	if topK <= 0 {
		return []*model.Chunk{}, nil
	}

	var documentRIDsParam interface{}
	if len(documentRIDs) > 0 {
		documentRIDsParam = pq.Array(documentRIDs)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		topK,
		documentRIDsParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.Chunk{}
	for rows.Next() {
		chunk := &model.Chunk{}

		var id int64
		var chunkEmbedding pgvector.Vector
		err := rows.Scan(
			&id,
			&chunk.ChunkID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.Content,
			&chunkEmbedding,
			&chunk.StartPos,
			&chunk.EndPos,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = chunkEmbedding.Slice()

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// SelectChunksByDocument retrieves all chunks for a document ordered by
// chunk index
func (h *ChunksDBHandler) SelectChunksByDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}

		var id int64
		var embedding pgvector.Vector
		err := rows.Scan(
			&id,
			&chunk.ChunkID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.Content,
			&embedding,
			&chunk.StartPos,
			&chunk.EndPos,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// DeleteByDocument removes all chunks belonging to a document
func (h *ChunksDBHandler) DeleteByDocument(ctx context.Context, documentRID uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_chunks_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// Stats reports the number of indexed chunks per document and overall
func (h *ChunksDBHandler) Stats(ctx context.Context) (*index.Stats, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM count_chunks_by_document()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	stats := &index.Stats{
		Dimension:      h.dimension,
		DocumentCounts: map[string]int{},
	}
	for rows.Next() {
		var documentRID uuid.UUID
		var count int
		err := rows.Scan(&documentRID, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		stats.DocumentCounts[documentRID.String()] = count
		stats.TotalEntries += count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return stats, nil
}
