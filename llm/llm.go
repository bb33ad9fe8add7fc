// Package llm provides the language-model clients the question answering
// pipelines depend on: an embedder for vector search and a generator for
// constrained answer synthesis. Both run against any OpenAI-compatible API.
package llm

import "context"

// Embedder produces embedding vectors for text. Implementations must return
// vectors of a consistent dimension so cosine similarity is meaningful.
type Embedder interface {
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a completion for a prompt under a system instruction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
