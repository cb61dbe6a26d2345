// Package vectordb defines durable storage and nearest-neighbor search
// over embedding vectors, partitioned by named collections.
package vectordb

import (
	"context"
	"errors"

	"github.com/agentic-platform/ragcore/schema"
)

var (
	// ErrCollectionNotFound is returned when searching a collection that
	// was never ingested. It is never silently mapped to an empty result.
	ErrCollectionNotFound = errors.New("vectordb: collection not found")
	// ErrLengthMismatch indicates documents and embeddings of different lengths.
	ErrLengthMismatch = errors.New("vectordb: documents and embeddings length mismatch")
	// ErrInvalidK indicates a non-positive result count.
	ErrInvalidK = errors.New("vectordb: k must be positive")
	// ErrDimensionMismatch indicates a vector whose dimension differs from
	// the collection's recorded embedding dimension. All vectors within one
	// collection must come from one embedding configuration.
	ErrDimensionMismatch = errors.New("vectordb: embedding dimension mismatch")
)

// Store saves and queries documents by embedding vector.
//
// Concurrency contract: a collection may be searched by many concurrent
// readers; concurrent Upsert calls to the same collection are serialized
// by the implementation, while upserts to different collections proceed
// in parallel.
type Store interface {
	// Upsert appends document/vector pairs to a collection, creating the
	// collection when absent. The pairing is positional: vectors[i] must
	// be the embedding of docs[i]. The write is all-or-nothing; on success
	// it is durably committed before returning. Duplicate content is
	// accepted as separate coexisting entries. Returns the assigned entry
	// identifiers in input order.
	Upsert(ctx context.Context, collection string, docs []schema.Document, vectors [][]float32) ([]string, error)

	// SimilaritySearch returns up to k documents ranked by descending
	// cosine similarity to the query vector, with Score populated. A
	// collection holding fewer than k entries yields all of them. A
	// metadata filter, when set, is applied before ranking so k refers to
	// post-filter results. Searching an absent collection fails with
	// ErrCollectionNotFound.
	SimilaritySearch(ctx context.Context, collection string, query []float32, k int, opts ...SearchOption) ([]schema.Document, error)

	// CollectionExists reports whether the named collection has been created.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// Collections lists the known collection names.
	Collections(ctx context.Context) ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// Persister is implemented by stores whose durability requires an
// explicit flush.
type Persister interface {
	Persist(ctx context.Context) error
}
