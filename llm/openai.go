package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// maxEmbedChars caps the text sent per embedding request, keeping it under
// the embedding model's token limit with headroom for dense numeric text.
const maxEmbedChars = 8000

// answerTemperature keeps generation near-deterministic so cited figures
// are reproduced, not paraphrased.
const answerTemperature float32 = 0.1

// maxAnswerTokens bounds completion length. Answers repeat values from the
// evidence block; anything longer than this is the model rambling.
const maxAnswerTokens = 1024

// Config holds connection settings for an OpenAI-compatible API.
type Config struct {
	// APIKey authenticates requests.
	APIKey string

	// BaseURL overrides the API endpoint, for self-hosted compatible
	// servers. Empty uses the OpenAI default.
	BaseURL string

	// EmbeddingModel names the embedding model. Empty selects
	// text-embedding-3-small.
	EmbeddingModel string

	// ChatModel names the completion model. Empty selects gpt-4o-mini.
	ChatModel string
}

// Client implements Embedder and Generator against an OpenAI-compatible
// API. It holds no connection state; requests carry the caller's context
// and deadline.
type Client struct {
	api            *openai.Client
	embeddingModel string
	chatModel      string
}

var (
	_ Embedder  = (*Client)(nil)
	_ Generator = (*Client)(nil)
)

// NewClient creates a client from cfg.
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch returns one vector per input text, in input order. Texts
// longer than the request cap are truncated before embedding.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = truncate(t, maxEmbedChars)
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Generate produces a completion for prompt under the system instruction.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	temperature := answerTemperature
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: &temperature,
		MaxTokens:   maxAnswerTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// truncate cuts s to at most max runes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
