// Package pipeline wires loading, chunking, embedding, retrieval and
// generation into the two top-level operations: Ingest and Query.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-platform/ragcore/config"
	"github.com/agentic-platform/ragcore/embeddings"
	"github.com/agentic-platform/ragcore/generation"
	"github.com/agentic-platform/ragcore/loader"
	"github.com/agentic-platform/ragcore/retriever"
	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/splitter"
	"github.com/agentic-platform/ragcore/vectordb"
)

var (
	// ErrNoMatches indicates the collection exists but nothing matched the
	// query.
	ErrNoMatches = errors.New("pipeline: no matches")
	// ErrNoGenerator indicates Query was called on a pipeline built without
	// a generation provider. Retrieval still works through Retrieve.
	ErrNoGenerator = errors.New("pipeline: no generator configured")
)

// Service is the retrieval-augmented-generation pipeline.
type Service struct {
	cfg       *config.Config
	store     vectordb.Store
	embedder  embeddings.Embedder
	generator generation.Generator
	splitter  splitter.Splitter
	loader    *loader.Service
}

// New creates a pipeline. The generator may be nil, which disables Query
// but leaves Ingest and Retrieve fully functional.
func New(cfg *config.Config, store vectordb.Store, embedder embeddings.Embedder, generator generation.Generator) (*Service, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.Init()
	if store == nil {
		return nil, fmt.Errorf("pipeline: store was nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder was nil")
	}
	split, err := splitter.NewRecursive(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		generator: generator,
		splitter:  split,
		loader:    loader.New(),
	}, nil
}

// Ingest loads the source (file, directory or URL), chunks it, embeds all
// chunks in one batch and upserts them into the collection. Nothing is
// written unless embedding succeeds for the whole batch; the chunk count
// is returned.
func (s *Service) Ingest(ctx context.Context, source, collection string) (int, error) {
	docs, err := s.loader.Load(ctx, source)
	if err != nil {
		return 0, err
	}
	return s.IngestDocuments(ctx, docs, collection)
}

// IngestDocuments chunks and indexes already-loaded documents.
func (s *Service) IngestDocuments(ctx context.Context, docs []schema.Document, collection string) (int, error) {
	chunks := s.splitter.Split(docs)
	if len(chunks) == 0 {
		return 0, nil
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.PageContent
	}
	embedCtx, cancel := s.providerContext(ctx)
	defer cancel()
	vectors, err := s.embedder.EmbedDocuments(embedCtx, texts)
	if err != nil {
		return 0, fmt.Errorf("pipeline: embed chunks: %w", err)
	}
	if _, err := s.store.Upsert(ctx, collection, chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Retrieve returns the top-k matches for the question in descending
// similarity order. k <= 0 falls back to the configured default.
func (s *Service) Retrieve(ctx context.Context, collection, question string, k int) ([]schema.Document, error) {
	if k <= 0 {
		k = s.cfg.K
	}
	ret := retriever.New(s.store, s.embedder, collection, retriever.WithK(s.cfg.K))
	embedCtx, cancel := s.providerContext(ctx)
	defer cancel()
	return ret.RetrieveWithScores(embedCtx, question, k)
}

// Query retrieves context for the question, generates an answer grounded in
// it and returns the answer together with the sources that informed it.
// Sources are always populated on success.
func (s *Service) Query(ctx context.Context, collection, question string, k int) (*schema.QueryResult, error) {
	if s.generator == nil {
		return nil, ErrNoGenerator
	}
	docs, err := s.Retrieve(ctx, collection, question, k)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoMatches
	}
	prompt := buildPrompt(question, docs)
	genCtx, cancel := s.providerContext(ctx)
	defer cancel()
	answer, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("pipeline: generate: %w", err)
	}
	result := &schema.QueryResult{
		Answer:  answer,
		Sources: make([]schema.Source, len(docs)),
	}
	for i, doc := range docs {
		result.Sources[i] = schema.Source{
			Content:  doc.PageContent,
			Metadata: doc.CloneMetadata(),
			Score:    doc.Score,
		}
	}
	return result, nil
}

// buildPrompt joins retrieved chunks in rank order, blank-line separated,
// ahead of the question.
func buildPrompt(question string, docs []schema.Document) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below.\n\nContext:\n")
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(doc.PageContent)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ProviderTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.ProviderTimeout)
}
