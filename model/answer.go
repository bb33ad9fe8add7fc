package model

// QuestionType selects the retrieval pipeline for a question.
type QuestionType string

const (
	QuestionFactual   QuestionType = "factual"
	QuestionFinancial QuestionType = "financial"
)

// ConfidenceTier buckets the top retrieval similarity for an answer.
type ConfidenceTier string

const (
	ConfidenceHigh     ConfidenceTier = "high"
	ConfidenceMedium   ConfidenceTier = "medium"
	ConfidenceLow      ConfidenceTier = "low"
	ConfidenceNotFound ConfidenceTier = "not_found"
)

// Citation points a reader back to the source of an answer.
type Citation struct {
	DocumentID   string `json:"documentId"`
	DocumentName string `json:"documentName"`
	Page         int    `json:"page"`

	// ChunkID is set for factual answers, TableID for financial ones.
	ChunkID string `json:"chunkId,omitempty"`
	TableID string `json:"tableId,omitempty"`
}

// EvidenceValue carries the full provenance of a table value reported in a
// financial answer, so an auditor can verify every figure against the source
// PDF without recomputation.
type EvidenceValue struct {
	TableID   string            `json:"tableId"`
	TableName TableType         `json:"tableName,omitempty"`
	Page      int               `json:"page"`
	RowLabel  string            `json:"rowLabel"`
	RawText   string            `json:"rawText"`
	Cells     map[string]string `json:"cells"`
	Context   []string          `json:"context,omitempty"`
	Unit      string            `json:"unit,omitempty"`
}

// Answer is the structured response to a question. Query-time faults are
// folded into an Answer with ConfidenceNotFound, never surfaced as errors.
type Answer struct {
	Type       QuestionType    `json:"type"`
	Text       string          `json:"answer"`
	Quote      string          `json:"quote,omitempty"`
	Values     []EvidenceValue `json:"values,omitempty"`
	Citations  []Citation      `json:"citations"`
	Confidence ConfidenceTier  `json:"confidence"`
}

// ChunkEvidence is a ranked text chunk used within a single answer request.
type ChunkEvidence struct {
	Chunk      *TextChunk
	Similarity float64
}

// RowEvidence is a ranked normalized row used within a single answer request.
type RowEvidence struct {
	Row        *NormalizedRow
	Table      *ExtractedTable
	Similarity float64
}
