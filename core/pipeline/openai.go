package pipeline

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/siherrmann/docqa/helper"
)

// OpenAIEmbedderDimensions maps supported OpenAI embedding models to their
// output dimensions.
var OpenAIEmbedderDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// The whole batch is sent in a single request, so a backend failure fails
// the batch as a whole and no partial results are possible. Returns the
// embed function and the model's output dimension.
func OpenAIEmbedder(apiKey string, embeddingModel string) (EmbedFunc, int, error) {
	if apiKey == "" {
		return nil, 0, fmt.Errorf("%w: OpenAI API key is empty", helper.ErrConfiguration)
	}
	dimension, ok := OpenAIEmbedderDimensions[embeddingModel]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown embedding model %q", helper.ErrConfiguration, embeddingModel)
	}

	client := openai.NewClient(apiKey)

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(embeddingModel),
			Input: texts,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("%w: %v", helper.ErrTimeout, err)
			}
			return nil, fmt.Errorf("%w: %v", helper.ErrEmbedding, err)
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", helper.ErrEmbedding, len(resp.Data), len(texts))
		}

		// Responses may arrive out of order; the Index field restores it
		embeddings := make([][]float32, len(texts))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(texts) {
				return nil, fmt.Errorf("%w: embedding index %d out of range", helper.ErrEmbedding, data.Index)
			}
			embeddings[data.Index] = data.Embedding
		}

		return embeddings, nil
	}, dimension, nil
}
