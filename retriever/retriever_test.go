package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/vectordb/mem"
)

type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vector, nil
}

func TestService_Retrieve(t *testing.T) {
	ctx := context.Background()
	store, err := mem.New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	docs := []schema.Document{
		{PageContent: "close"},
		{PageContent: "farther"},
	}
	if _, err := store.Upsert(ctx, "kb", docs, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}

	ret := New(store, &fixedEmbedder{vector: []float32{1, 0}}, "kb", WithK(1))
	hits, err := ret.Retrieve(ctx, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].PageContent != "close" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("expected positive similarity score, got %v", hits[0].Score)
	}
}

func TestService_InvalidK(t *testing.T) {
	store, err := mem.New(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ret := New(store, &fixedEmbedder{vector: []float32{1}}, "kb")
	_, err = ret.RetrieveWithScores(context.Background(), "q", 0)
	if !errors.Is(err, ErrInvalidK) {
		t.Fatalf("expected ErrInvalidK, got %v", err)
	}
}
