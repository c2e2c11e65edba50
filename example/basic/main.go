package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/docqa"
	"github.com/siherrmann/docqa/generator"
	"github.com/siherrmann/docqa/model"
)

const sampleContent = `This is a sample document about retrieval augmented generation.

Retrieval augmented generation combines a vector index with a language model.
Documents are split into overlapping chunks, each chunk is embedded into a vector,
and the vectors are stored in an index keyed by a stable chunk ID.

At question time the question is embedded with the same model, the most similar
chunks are retrieved, filtered by a similarity threshold and assembled into a
bounded context block. The language model answers strictly from that context.

When no chunk is similar enough to the question, the system answers that it could
not find relevant information instead of guessing.`

func main() {
	config := model.DefaultPipelineConfig()

	q, err := docqa.NewDocQA(config)
	if err != nil {
		log.Fatalf("Failed to create docqa: %v", err)
	}
	defer q.Close()

	// Set up the default pipeline (sliding window chunking + local embeddings)
	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// The generator needs an OpenAI API key
	generate, err := generator.OpenAIGenerator(os.Getenv("OPENAI_API_KEY"), "")
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	q.SetGenerator(generate)

	// Create document with content
	doc := &model.Document{
		Title:   "Introduction to Retrieval Augmented Generation",
		Source:  "basic_example",
		Content: sampleContent,
		Metadata: model.Metadata{
			"author": "Example Author",
			"topic":  "retrieval",
		},
	}

	// Chunk, embed and index the document in one call
	fmt.Println("Ingesting document...")
	result, err := q.IngestDocument(context.Background(), doc)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document ingested with ID: %s\n", result.DocumentRID)
	fmt.Printf("Indexed %d chunks\n", result.ChunkCount)

	// Ask a question against the index
	question := "What happens when no chunk is similar enough?"

	fmt.Printf("\nQuestion: %s\n", question)

	answer, err := q.AnswerQuestion(context.Background(), question)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}

	fmt.Printf("\nAnswer: %s\n", answer.Text)
	fmt.Printf("Confidence: %.4f\n", answer.Confidence)
	fmt.Printf("Source chunks: %v\n", answer.SourceChunkIDs)

	fmt.Println("\nBasic example completed successfully!")
}
