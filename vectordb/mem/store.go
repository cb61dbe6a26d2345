// Package mem provides an in-memory vector store with optional snapshot
// persistence. Scores returned by similarity search are cosine
// similarities: higher is better and results are ordered descending.
package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/vectordb"
	"github.com/google/uuid"
	"github.com/viant/afs"
)

type entry struct {
	id     string
	vector []float32
	doc    schema.Document
}

type collection struct {
	name string
	dim  int
	fp   uint64

	sync.RWMutex
	entries []entry
}

// Store keeps collections in memory. When a base URL is configured,
// each Upsert writes the collection snapshot before returning and New
// reloads snapshots on open; Persist rewrites every snapshot on demand.
type Store struct {
	baseURL    string
	embedModel string
	fs         afs.Service

	sync.RWMutex
	collections map[string]*collection
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithBaseURL enables snapshot persistence under the given location.
func WithBaseURL(baseURL string) StoreOption {
	return func(s *Store) { s.baseURL = baseURL }
}

// WithEmbeddingModel records the embedding configuration fingerprinted on
// each collection.
func WithEmbeddingModel(model string) StoreOption {
	return func(s *Store) { s.embedModel = model }
}

// New creates a Store and reloads snapshots when a base URL is set.
func New(ctx context.Context, options ...StoreOption) (*Store, error) {
	s := &Store{
		fs:          afs.New(),
		collections: map[string]*collection{},
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert appends entries to a collection. The new entries are staged
// fully before publication, so a failed call leaves the collection
// untouched. When a base URL is configured the collection snapshot is
// written before Upsert returns; a snapshot failure unwinds the append.
func (s *Store) Upsert(ctx context.Context, name string, docs []schema.Document, vectors [][]float32) ([]string, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%w: %d documents, %d embeddings", vectordb.ErrLengthMismatch, len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", vectordb.ErrDimensionMismatch, i, len(vec), dim)
		}
	}
	fp, err := vectordb.Fingerprint(s.embedModel)
	if err != nil {
		return nil, err
	}
	col, created := s.getOrCreate(name, dim, fp)

	col.Lock()
	defer col.Unlock()
	if col.dim != dim {
		return nil, fmt.Errorf("%w: collection %q holds %d-dimensional vectors, got %d", vectordb.ErrDimensionMismatch, name, col.dim, dim)
	}
	staged := make([]entry, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = uuid.New().String()
		staged[i] = entry{id: ids[i], vector: vectors[i], doc: docs[i]}
	}
	prior := len(col.entries)
	col.entries = append(col.entries, staged...)
	if s.baseURL != "" {
		if err := s.persistLocked(ctx, col); err != nil {
			col.entries = col.entries[:prior]
			if created && prior == 0 {
				s.Lock()
				delete(s.collections, name)
				s.Unlock()
			}
			return nil, err
		}
	}
	return ids, nil
}

// SimilaritySearch ranks a collection's entries by cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, name string, query []float32, k int, opts ...vectordb.SearchOption) ([]schema.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", vectordb.ErrInvalidK, k)
	}
	s.RLock()
	col, ok := s.collections[name]
	s.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", vectordb.ErrCollectionNotFound, name)
	}
	options := vectordb.NewOptions(opts...)

	col.RLock()
	defer col.RUnlock()
	hits := make([]schema.Document, 0, len(col.entries))
	for _, e := range col.entries {
		if options.Filter != nil && !options.Filter(e.doc.Metadata) {
			continue
		}
		doc := e.doc
		doc.Score = vectordb.Cosine(query, e.vector)
		hits = append(hits, doc)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// CollectionExists reports whether the named collection has been created.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// Collections lists known collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	s.RLock()
	defer s.RUnlock()
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Close releases no resources for the in-memory store.
func (s *Store) Close() error { return nil }

func (s *Store) getOrCreate(name string, dim int, fp uint64) (*collection, bool) {
	s.Lock()
	defer s.Unlock()
	col, ok := s.collections[name]
	if !ok {
		col = &collection{name: name, dim: dim, fp: fp}
		s.collections[name] = col
	}
	return col, !ok
}
