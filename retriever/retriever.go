// Package retriever turns a natural-language query into ranked document
// matches by embedding the query and searching a vector store. Scores are
// cosine similarities: higher means closer, and results arrive in
// descending score order.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-platform/ragcore/embeddings"
	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/vectordb"
)

// ErrInvalidK indicates a non-positive result count.
var ErrInvalidK = errors.New("retriever: k must be positive")

// Service retrieves documents relevant to a query from one collection.
type Service struct {
	store      vectordb.Store
	embedder   embeddings.Embedder
	collection string
	k          int
}

// Option customises a retriever.
type Option func(*Service)

// WithK sets the default number of documents returned per query.
func WithK(k int) Option {
	return func(s *Service) {
		s.k = k
	}
}

// DefaultK is the number of matches returned when no override is supplied.
const DefaultK = 4

// New creates a retriever bound to a collection.
func New(store vectordb.Store, embedder embeddings.Embedder, collection string, opts ...Option) *Service {
	ret := &Service{
		store:      store,
		embedder:   embedder,
		collection: collection,
		k:          DefaultK,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// RetrieveWithScores embeds the query and returns up to k documents in
// descending similarity order, each carrying its score. Fewer than k
// documents are returned when the collection holds fewer entries.
func (s *Service) RetrieveWithScores(ctx context.Context, query string, k int, opts ...vectordb.SearchOption) ([]schema.Document, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	docs, err := s.store.SimilaritySearch(ctx, s.collection, vector, k, opts...)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Retrieve is RetrieveWithScores with the retriever's default k.
func (s *Service) Retrieve(ctx context.Context, query string, opts ...vectordb.SearchOption) ([]schema.Document, error) {
	return s.RetrieveWithScores(ctx, query, s.k, opts...)
}
