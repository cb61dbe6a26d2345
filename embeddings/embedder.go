// Package embeddings defines the capability abstraction converting text
// to fixed-dimension vectors.
package embeddings

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrProviderUnavailable indicates missing credentials or model
	// configuration; it is raised eagerly at construction.
	ErrProviderUnavailable = errors.New("embeddings: provider unavailable")
	// ErrProviderTimeout indicates an embedding call exceeded its deadline.
	ErrProviderTimeout = errors.New("embeddings: provider call timed out")
)

// Embedder is a minimal interface for computing vector embeddings for
// documents and queries. Implementations are batch-oriented and
// deterministic for a fixed model configuration.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Normalize scales v to unit L2 norm in place and returns it, so that
// cosine similarity and dot product are interchangeable ranking signals.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// NormalizeAll normalizes every vector in place and returns the slice.
func NormalizeAll(vecs [][]float32) [][]float32 {
	for _, v := range vecs {
		Normalize(v)
	}
	return vecs
}
