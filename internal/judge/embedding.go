package judge

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// defaultSimilarityThreshold is the cosine similarity above which two
// answers count as agreeing.
const defaultSimilarityThreshold = 0.82

// EmbeddingJudge scores answer agreement by embedding cosine similarity.
// Cheaper than an LLM comparison call per question; coarser on negation.
type EmbeddingJudge struct {
	embedder  embeddings.Embedder
	threshold float64
}

// EmbeddingConfig configures the embedding judge.
type EmbeddingConfig struct {
	// BaseURL of an OpenAI-compatible embeddings API.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// APIKey authenticates requests.
	APIKey string

	// Threshold overrides the default similarity cutoff when positive.
	Threshold float64
}

// NewEmbeddingJudge creates a judge over an existing embedder.
func NewEmbeddingJudge(embedder embeddings.Embedder, threshold float64) (*EmbeddingJudge, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	return &EmbeddingJudge{embedder: embedder, threshold: threshold}, nil
}

// NewOpenAIEmbeddingJudge builds the judge on langchaingo's OpenAI
// embeddings client.
func NewOpenAIEmbeddingJudge(cfg EmbeddingConfig) (*EmbeddingJudge, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}

	opts := []openai.Option{openai.WithToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.Model))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return NewEmbeddingJudge(embedder, cfg.Threshold)
}

// Equivalent implements Judge.
func (j *EmbeddingJudge) Equivalent(ctx context.Context, question, answerKey, oracleAnswer string) (bool, error) {
	vectors, err := j.embedder.EmbedDocuments(ctx, []string{answerKey, oracleAnswer})
	if err != nil {
		return false, fmt.Errorf("failed to embed answers: %w", err)
	}
	if len(vectors) != 2 {
		return false, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
	}

	sim, err := cosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return false, err
	}
	return sim >= j.threshold, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero-magnitude embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

var _ Judge = (*EmbeddingJudge)(nil)
