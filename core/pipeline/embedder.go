package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/docqa/helper"
)

// DefaultEmbedderDimension is the output dimension of the default
// all-MiniLM-L6-v2 sentence transformer model.
const DefaultEmbedderDimension = 384

// DefaultEmbedder creates an embedder using a local sentence transformer
// model. Uses the all-MiniLM-L6-v2 model which produces 384-dimensional
// embeddings. The model runs in-process, so identical input always yields
// identical vectors for a given model version.
func DefaultEmbedder() (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		type batchResult struct {
			embeddings [][]float32
			err        error
		}

		// The ONNX runtime call cannot be interrupted, so run it aside
		// and honor the context deadline on this side.
		done := make(chan batchResult, 1)
		go func() {
			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				done <- batchResult{nil, fmt.Errorf("%w: %v", helper.ErrEmbedding, err)}
				return
			}
			if len(result.Embeddings) != len(texts) {
				done <- batchResult{nil, fmt.Errorf("%w: got %d embeddings for %d texts", helper.ErrEmbedding, len(result.Embeddings), len(texts))}
				return
			}
			done <- batchResult{result.Embeddings, nil}
		}()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", helper.ErrTimeout, ctx.Err())
		case r := <-done:
			return r.embeddings, r.err
		}
	}, nil
}
