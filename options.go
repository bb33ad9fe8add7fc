package finsight

import (
	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/llm"
)

// engineOptions holds configuration assembled by the Option functions.
type engineOptions struct {
	dataDir   string
	llmConfig llm.Config
	embedder  llm.Embedder
	generator llm.Generator
	logger    *logrus.Logger
	ocr       bool
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithDataDir sets where the SQLite database lives. Defaults to
// ~/.finsight/data.
func WithDataDir(dir string) Option {
	return func(o *engineOptions) { o.dataDir = dir }
}

// WithLLM configures the OpenAI-compatible client used for embeddings and
// answer generation.
func WithLLM(cfg llm.Config) Option {
	return func(o *engineOptions) { o.llmConfig = cfg }
}

// WithEmbedder replaces the embedding backend. Overrides WithLLM for
// embeddings only.
func WithEmbedder(e llm.Embedder) Option {
	return func(o *engineOptions) { o.embedder = e }
}

// WithGenerator replaces the generation backend. Overrides WithLLM for
// generation only.
func WithGenerator(g llm.Generator) Option {
	return func(o *engineOptions) { o.generator = g }
}

// WithLogger sets the logger shared by the ingestion pipeline and the
// question-answering service. Defaults to a JSON-formatted logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *engineOptions) { o.logger = log }
}

// WithOCR enables the scanned-page OCR fallback. Requires a Tesseract-backed
// build; without one the fallback reports its pages as warnings.
func WithOCR() Option {
	return func(o *engineOptions) { o.ocr = true }
}
