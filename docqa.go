package docqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/core/index"
	"github.com/siherrmann/docqa/core/pipeline"
	"github.com/siherrmann/docqa/core/retrieval"
	"github.com/siherrmann/docqa/database"
	"github.com/siherrmann/docqa/generator"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
	loadSql "github.com/siherrmann/docqa/sql"
)

// retryBackoff is the wait before the single retry after a timed out
// embedding, index or generator call.
const retryBackoff = 500 * time.Millisecond

// DocQA wires chunking, embedding, vector retrieval, context assembly and
// answer generation into a document question answering pipeline.
type DocQA struct {
	DB        *helper.Database             // nil for a memory-backed instance
	Documents *database.DocumentsDBHandler // nil for a memory-backed instance
	Index     index.VectorIndex
	Pipeline  *pipeline.Pipeline // Optional chunking pipeline
	Engine    *retrieval.Engine
	Generator generator.GenerateFunc // Optional answer generator
	// Confidence scores answers from the retrieval results, defaults to MeanTopK(3)
	Confidence ConfidenceFunc
	config     model.PipelineConfig
	// Logging
	log *slog.Logger
}

// NewDocQA creates a memory-backed DocQA instance. Nothing is persisted;
// the index lives for the lifetime of the process. Use SetPipeline or
// UseDefaultPipeline before ingesting, and SetGenerator before answering.
func NewDocQA(config model.PipelineConfig) (*DocQA, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger()

	memoryIndex, err := index.NewMemoryIndex(config.EmbeddingDimension)
	if err != nil {
		return nil, helper.NewError("create memory index", err)
	}

	return &DocQA{
		Index:      memoryIndex,
		Engine:     retrieval.NewEngine(memoryIndex),
		Confidence: MeanTopK(3),
		config:     config,
		log:        logger,
	}, nil
}

// NewDocQAWithPostgres creates a DocQA instance backed by Postgres with
// pgvector. Documents and chunks are persisted; similarity search runs in
// the database.
func NewDocQAWithPostgres(config model.PipelineConfig, dbConfig *helper.DatabaseConfiguration) (*DocQA, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger()

	// Initialize database
	db := helper.NewDatabase("docqa", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in the correct order (documents first, then chunks)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, config.EmbeddingDimension, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	return &DocQA{
		DB:         db,
		Documents:  documents,
		Index:      chunks,
		Engine:     retrieval.NewEngine(chunks),
		Confidence: MeanTopK(3),
		config:     config,
		log:        logger,
	}, nil
}

func newLogger() *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

// Close closes the database connection
func (q *DocQA) Close() error {
	if q.DB != nil && q.DB.Instance != nil {
		return q.DB.Instance.Close()
	}
	return nil
}

// Config returns a copy of the pipeline configuration
func (q *DocQA) Config() model.PipelineConfig {
	return q.config
}

// SetPipeline sets the chunking and embedding pipeline for document processing
func (q *DocQA) SetPipeline(p *pipeline.Pipeline) error {
	if p.Dimension != q.config.EmbeddingDimension {
		return helper.NewError("set pipeline", fmt.Errorf("%w: pipeline dimension %d does not match configured embedding dimension %d", helper.ErrConfiguration, p.Dimension, q.config.EmbeddingDimension))
	}
	q.Pipeline = p
	return nil
}

// SetGenerator sets the answer generator invoked on retrieved context
func (q *DocQA) SetGenerator(g generator.GenerateFunc) {
	q.Generator = g
}

// SetConfidence replaces the default confidence function
func (q *DocQA) SetConfidence(f ConfidenceFunc) {
	q.Confidence = f
}

// UseDefaultPipeline sets up the default sliding window chunking and local
// embedding pipeline. Chunk size and overlap come from the configuration;
// the embedder is the all-MiniLM-L6-v2 model (384 dimensions).
func (q *DocQA) UseDefaultPipeline() error {
	if q.config.EmbeddingDimension != pipeline.DefaultEmbedderDimension {
		return helper.NewError("use default pipeline", fmt.Errorf("%w: default embedder produces %d dimensions, configuration expects %d", helper.ErrConfiguration, pipeline.DefaultEmbedderDimension, q.config.EmbeddingDimension))
	}

	chunker, err := pipeline.SlidingWindowChunker(q.config.ChunkSize, q.config.ChunkOverlap)
	if err != nil {
		return helper.NewError("create default chunker", err)
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	q.Pipeline = pipeline.NewPipeline(chunker, embedder, pipeline.DefaultEmbedderDimension)
	return nil
}

// IngestDocument processes a document end to end:
// 1. Persisting the document metadata (without content)
// 2. Chunking the content and embedding all chunks in one batch
// 3. Upserting all chunks into the vector index
// A failure at any stage leaves the index without any chunk of the
// document; timed out embedding and index calls are retried once.
func (q *DocQA) IngestDocument(ctx context.Context, doc *model.Document) (*model.IngestResult, error) {
	if q.Pipeline == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("%w: pipeline not set, use SetPipeline() first", helper.ErrConfiguration))
	}
	if doc.Content == "" {
		return nil, helper.NewError("ingest document", fmt.Errorf("document content is empty"))
	}

	if q.Documents != nil {
		// Store content temporarily and clear it before DB insert
		content := doc.Content
		doc.Content = ""
		if err := q.Documents.InsertDocument(doc); err != nil {
			doc.Content = content
			return nil, helper.NewError("insert document", err)
		}
		doc.Content = content
	} else if doc.RID == uuid.Nil {
		doc.RID = uuid.New()
	}

	var chunks []*model.Chunk
	err := q.withRetry(ctx, "process document", func(ctx context.Context) error {
		var err error
		chunks, err = q.Pipeline.Process(ctx, doc)
		return err
	})
	if err != nil {
		q.discardDocument(doc.RID)
		return nil, err
	}

	err = q.withRetry(ctx, "index chunks", func(ctx context.Context) error {
		return q.Index.Upsert(ctx, chunks)
	})
	if err != nil {
		q.discardDocument(doc.RID)
		return nil, err
	}

	q.log.Info("Ingested document",
		slog.String("document_id", doc.RID.String()),
		slog.String("title", doc.Title),
		slog.Int("num_chunks", len(chunks)))

	return &model.IngestResult{
		DocumentRID: doc.RID.String(),
		ChunkCount:  len(chunks),
	}, nil
}

// discardDocument removes the persisted document row after a failed
// ingestion so no half-ingested document lingers
func (q *DocQA) discardDocument(rid uuid.UUID) {
	if q.Documents == nil {
		return
	}
	if err := q.Documents.DeleteDocument(rid); err != nil {
		q.log.Warn("Failed to clean up document after failed ingestion",
			slog.String("document_id", rid.String()),
			slog.String("error", err.Error()))
	}
}

// IngestDocuments ingests multiple documents concurrently. Each document
// succeeds or fails on its own; the returned slice is aligned with the
// input and holds nil for failed documents. The error joins all per
// document failures.
func (q *DocQA) IngestDocuments(ctx context.Context, docs []*model.Document) ([]*model.IngestResult, error) {
	results := make([]*model.IngestResult, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc *model.Document) {
			defer wg.Done()
			result, err := q.IngestDocument(ctx, doc)
			if err != nil {
				errs[i] = fmt.Errorf("document %d (%v): %w", i, doc.Title, err)
				return
			}
			results[i] = result
		}(i, doc)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// AnswerQuestion answers a question from the indexed documents:
// 1. Embedding the question
// 2. Retrieving the most similar chunks above the similarity threshold
// 3. Assembling the retrieved chunks into a bounded context block
// 4. Generating an answer from the context
// When retrieval yields nothing usable the generator is not invoked and a
// fixed fallback answer with zero confidence is returned. Timed out calls
// are retried once.
func (q *DocQA) AnswerQuestion(ctx context.Context, question string) (*model.Answer, error) {
	return q.answerQuestion(ctx, question, nil)
}

// AnswerQuestionInDocuments answers a question like AnswerQuestion but
// restricts retrieval to chunks of the given documents. Chunks of other
// documents never appear in the context or the source chunk IDs. An empty
// documentRIDs list searches all indexed documents.
func (q *DocQA) AnswerQuestionInDocuments(ctx context.Context, question string, documentRIDs []uuid.UUID) (*model.Answer, error) {
	return q.answerQuestion(ctx, question, documentRIDs)
}

func (q *DocQA) answerQuestion(ctx context.Context, question string, documentRIDs []uuid.UUID) (*model.Answer, error) {
	if q.Pipeline == nil {
		return nil, helper.NewError("answer question", fmt.Errorf("%w: pipeline not set, use SetPipeline() first", helper.ErrConfiguration))
	}
	if q.Generator == nil {
		return nil, helper.NewError("answer question", fmt.Errorf("%w: generator not set, use SetGenerator() first", helper.ErrConfiguration))
	}
	if question == "" {
		return nil, helper.NewError("answer question", fmt.Errorf("question is empty"))
	}

	var embedding []float32
	err := q.withRetry(ctx, "embed question", func(ctx context.Context) error {
		var err error
		embedding, err = q.Pipeline.EmbedQuery(ctx, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	results, err := q.Engine.Retrieve(ctx, embedding, q.config.SimilarityThreshold, q.config.MaxRetrievedChunks, documentRIDs)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		q.log.Info("No chunk cleared the similarity threshold", slog.String("question", question))
		return &model.Answer{
			Text:                generator.InsufficientContextAnswer,
			Confidence:          0,
			InsufficientContext: true,
		}, nil
	}

	assembled := retrieval.AssembleContext(results, q.config.MaxContextChars)
	if assembled.Text == "" {
		q.log.Info("No retrieved chunk fit into the context budget", slog.String("question", question))
		return &model.Answer{
			Text:                generator.InsufficientContextAnswer,
			Confidence:          0,
			InsufficientContext: true,
		}, nil
	}

	var answerText string
	err = q.withRetry(ctx, "generate answer", func(ctx context.Context) error {
		var err error
		answerText, err = q.Generator(ctx, assembled.Text, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	q.log.Info("Answered question",
		slog.String("question", question),
		slog.Int("num_chunks", len(assembled.ChunkIDs)))

	return &model.Answer{
		Text:           answerText,
		Confidence:     q.Confidence(results),
		SourceChunkIDs: assembled.ChunkIDs,
	}, nil
}

// AnswerQuestions answers multiple questions in order. It fails fast on
// the first error, returning the answers produced so far.
func (q *DocQA) AnswerQuestions(ctx context.Context, questions []string) ([]*model.Answer, error) {
	answers := make([]*model.Answer, 0, len(questions))
	for i, question := range questions {
		answer, err := q.AnswerQuestion(ctx, question)
		if err != nil {
			return answers, helper.NewError(fmt.Sprintf("answer question %d", i), err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// DeleteDocument removes a document and all its indexed chunks
func (q *DocQA) DeleteDocument(ctx context.Context, rid uuid.UUID) error {
	if err := q.Index.DeleteByDocument(ctx, rid); err != nil {
		return helper.NewError("delete document chunks", err)
	}
	if q.Documents != nil {
		if err := q.Documents.DeleteDocument(rid); err != nil {
			return helper.NewError("delete document", err)
		}
	}

	q.log.Info("Deleted document", slog.String("document_id", rid.String()))
	return nil
}

// Stats reports the current contents of the vector index
func (q *DocQA) Stats(ctx context.Context) (*index.Stats, error) {
	return q.Index.Stats(ctx)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat.
// Only supported for Postgres-backed instances.
func (q *DocQA) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	chunks, ok := q.Index.(*database.ChunksDBHandler)
	if !ok {
		return helper.NewError("change index type", fmt.Errorf("%w: index type switching requires a Postgres-backed index", helper.ErrConfiguration))
	}
	return chunks.ChangeIndexType(ctx, indexType, params)
}

// withRetry runs fn under the configured query timeout and retries once
// after a short backoff when the call timed out. Other errors are returned
// as is.
func (q *DocQA) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	run := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, q.config.QueryTimeout)
		defer cancel()
		return fn(attemptCtx)
	}

	err := run()
	if err == nil || !errors.Is(err, helper.ErrTimeout) {
		return err
	}

	q.log.Warn("Retrying after timeout",
		slog.String("operation", operation),
		slog.String("error", err.Error()))

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return helper.NewError(operation, fmt.Errorf("%w: %v", helper.ErrTimeout, ctx.Err()))
	}

	return run()
}
