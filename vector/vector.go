// Package vector provides cosine similarity ranking over stored embeddings.
// The store is queried with fetch-all-then-rank: candidates are loaded into
// an in-process index and scanned linearly. SimilarityIndex is the extension
// point for a store-native nearest-neighbour implementation.
package vector

import (
	"math"
	"sort"
)

// Hit is one ranked candidate.
type Hit struct {
	// ID identifies the candidate record (chunk or row ID).
	ID string

	// Similarity is the cosine similarity in [-1, 1]; zero-magnitude
	// vectors score 0.
	Similarity float64
}

// SimilarityIndex ranks candidates by similarity to a query embedding.
//
// MemoryIndex is the naive linear-scan implementation; a store-native
// nearest-neighbour index can replace it behind this interface.
type SimilarityIndex interface {
	// Add registers a candidate. Nil or empty embeddings are ignored.
	Add(id string, embedding []float32)

	// Search returns the top-k candidates by descending similarity.
	// Ties keep insertion order.
	Search(query []float32, k int) []Hit
}

// Cosine computes the cosine similarity between two vectors. Mismatched
// lengths compare over the shorter prefix; a zero-magnitude vector yields 0
// rather than NaN.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MemoryIndex is a linear-scan SimilarityIndex over in-process candidates.
type MemoryIndex struct {
	ids        []string
	embeddings [][]float32
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add registers a candidate embedding. Candidates with missing embeddings
// are excluded from ranking entirely.
func (m *MemoryIndex) Add(id string, embedding []float32) {
	if len(embedding) == 0 {
		return
	}
	m.ids = append(m.ids, id)
	m.embeddings = append(m.embeddings, embedding)
}

// Len returns the number of rankable candidates.
func (m *MemoryIndex) Len() int {
	return len(m.ids)
}

// Search scans all candidates, computing cosine similarity against the
// query, and returns the top k hits in descending similarity order. The
// sort is stable so equal scores keep insertion order.
func (m *MemoryIndex) Search(query []float32, k int) []Hit {
	if k <= 0 || len(m.ids) == 0 {
		return nil
	}

	hits := make([]Hit, len(m.ids))
	for i, id := range m.ids {
		hits[i] = Hit{ID: id, Similarity: Cosine(query, m.embeddings[i])}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
