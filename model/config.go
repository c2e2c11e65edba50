package model

import (
	"fmt"
	"os"
	"time"

	"github.com/siherrmann/docqa/helper"
	"gopkg.in/yaml.v3"
)

// PipelineConfig holds every tunable of the ingestion and query pipeline.
// It is passed explicitly through the orchestrator rather than read from
// global state so that each pipeline instance is independently testable.
type PipelineConfig struct {
	// Chunking parameters
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// Retrieval parameters
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	MaxRetrievedChunks  int     `json:"max_retrieved_chunks" yaml:"max_retrieved_chunks"`

	// Context assembly parameters
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars"`

	// Embedding parameters
	EmbeddingDimension int `json:"embedding_dimension" yaml:"embedding_dimension"`

	// Timeout for embedding, index and generator calls
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
}

// DefaultPipelineConfig returns a sensible default configuration.
// The embedding dimension matches the all-MiniLM-L6-v2 model (384 dimensions).
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		SimilarityThreshold: 0.3,
		MaxRetrievedChunks:  10,
		MaxContextChars:     8000,
		EmbeddingDimension:  384,
		QueryTimeout:        30 * time.Second,
	}
}

// Validate checks the configuration before any processing happens.
// Violations are configuration errors, not runtime-recoverable conditions.
func (c *PipelineConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: chunk size must be positive, got %d", helper.ErrConfiguration, c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return helper.NewError("validate config", fmt.Errorf("%w: chunk overlap must satisfy 0 <= overlap < size, got overlap %d for size %d", helper.ErrConfiguration, c.ChunkOverlap, c.ChunkSize))
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return helper.NewError("validate config", fmt.Errorf("%w: similarity threshold must be in [-1, 1], got %f", helper.ErrConfiguration, c.SimilarityThreshold))
	}
	if c.MaxRetrievedChunks <= 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: max retrieved chunks must be positive, got %d", helper.ErrConfiguration, c.MaxRetrievedChunks))
	}
	if c.MaxContextChars <= 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: max context chars must be positive, got %d", helper.ErrConfiguration, c.MaxContextChars))
	}
	if c.EmbeddingDimension <= 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: embedding dimension must be positive, got %d", helper.ErrConfiguration, c.EmbeddingDimension))
	}
	if c.QueryTimeout <= 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: query timeout must be positive, got %s", helper.ErrConfiguration, c.QueryTimeout))
	}
	return nil
}

// LoadPipelineConfig reads a pipeline configuration from a YAML file.
// Fields missing from the file keep their default values.
func LoadPipelineConfig(path string) (PipelineConfig, error) {
	config := DefaultPipelineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, helper.NewError("read config file", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, helper.NewError("unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
