package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/docqa"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

const sampleContent = `PostgreSQL with the pgvector extension can serve as a persistent vector index.

Chunks are stored in a table with a vector column and queried with the cosine
distance operator. An HNSW index keeps similarity search fast as the table grows.

Because chunks are keyed by a stable chunk ID, re-ingesting a document replaces
its chunks instead of duplicating them.`

func main() {
	// Start a test PostgreSQL container with pgvector
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	config := model.DefaultPipelineConfig()

	q, err := docqa.NewDocQAWithPostgres(config, dbConfig)
	if err != nil {
		log.Fatalf("Failed to create docqa: %v", err)
	}
	defer q.Close()

	// Set up the default pipeline (sliding window chunking + local embeddings)
	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Ingest a document into the persistent index
	doc := &model.Document{
		Title:   "Persistent Vector Search",
		Source:  "postgres_example",
		Content: sampleContent,
	}

	fmt.Println("Ingesting document...")
	result, err := q.IngestDocument(context.Background(), doc)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document ingested with ID: %s\n", result.DocumentRID)
	fmt.Printf("Indexed %d chunks\n", result.ChunkCount)

	// Switch the vector index to IVFFlat and back to HNSW
	if err := q.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 10}); err != nil {
		log.Fatalf("Failed to switch index type: %v", err)
	}
	if err := q.ChangeIndexType(context.Background(), "hnsw", nil); err != nil {
		log.Fatalf("Failed to switch index type: %v", err)
	}
	fmt.Println("Switched index type ivfflat -> hnsw")

	// Inspect the index
	stats, err := q.Stats(context.Background())
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("Index holds %d chunks across %d documents (dimension %d)\n",
		stats.TotalEntries, len(stats.DocumentCounts), stats.Dimension)

	// Remove the document again
	if err := q.DeleteDocument(context.Background(), doc.RID); err != nil {
		log.Fatalf("Failed to delete document: %v", err)
	}
	fmt.Println("Deleted document and its chunks")

	fmt.Println("\nPostgres example completed successfully!")
}
