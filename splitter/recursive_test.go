package splitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/agentic-platform/ragcore/schema"
)

func TestNewRecursive_Validation(t *testing.T) {
	testCases := []struct {
		description  string
		chunkSize    int
		chunkOverlap int
		expectErr    bool
	}{
		{description: "valid", chunkSize: 100, chunkOverlap: 20},
		{description: "zero overlap", chunkSize: 100, chunkOverlap: 0},
		{description: "zero size", chunkSize: 0, chunkOverlap: 0, expectErr: true},
		{description: "negative size", chunkSize: -1, chunkOverlap: 0, expectErr: true},
		{description: "negative overlap", chunkSize: 100, chunkOverlap: -1, expectErr: true},
		{description: "overlap equals size", chunkSize: 100, chunkOverlap: 100, expectErr: true},
		{description: "overlap exceeds size", chunkSize: 100, chunkOverlap: 150, expectErr: true},
	}
	for _, testCase := range testCases {
		_, err := NewRecursive(testCase.chunkSize, testCase.chunkOverlap)
		if testCase.expectErr {
			if !errors.Is(err, ErrInvalidChunking) {
				t.Fatalf("%v: expected ErrInvalidChunking, got %v", testCase.description, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error %v", testCase.description, err)
		}
	}
}

func TestRecursive_ShortDocumentUnchanged(t *testing.T) {
	s, err := NewRecursive(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	doc := schema.Document{
		PageContent: "short text that fits in one chunk",
		Metadata:    map[string]interface{}{schema.MetaSource: "a.txt"},
	}
	chunks := s.Split([]schema.Document{doc})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageContent != doc.PageContent {
		t.Fatalf("content modified: %q", chunks[0].PageContent)
	}
	if chunks[0].Metadata[schema.MetaSource] != "a.txt" {
		t.Fatalf("source metadata lost")
	}
	if chunks[0].Metadata[schema.MetaChunkIndex] != 0 {
		t.Fatalf("expected chunk_index 0, got %v", chunks[0].Metadata[schema.MetaChunkIndex])
	}
}

func TestRecursive_ChunkBound(t *testing.T) {
	const chunkSize, chunkOverlap = 50, 10
	s, err := NewRecursive(chunkSize, chunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 40)
	chunks := s.Split([]schema.Document{{PageContent: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.PageContent) > chunkSize {
			t.Fatalf("chunk %d length %d exceeds %d", i, len(chunk.PageContent), chunkSize)
		}
	}
}

func TestRecursive_RoundTrip(t *testing.T) {
	const chunkSize, chunkOverlap = 40, 8
	s, err := NewRecursive(chunkSize, chunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	text := "First paragraph about storage.\n\nSecond paragraph about retrieval. " +
		"A third sentence with more words to force several chunks. " +
		"And a final tail without trailing separator"
	chunks := s.Split([]schema.Document{{PageContent: text}})

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		content := chunk.PageContent
		if i > 0 {
			strip := chunkOverlap
			if prev := chunks[i-1].PageContent; len(prev) < strip {
				strip = len(prev)
			}
			content = content[strip:]
		}
		rebuilt.WriteString(content)
	}
	if rebuilt.String() != text {
		t.Fatalf("round trip mismatch:\nwant %q\ngot  %q", text, rebuilt.String())
	}
}

func TestRecursive_OverlapCarried(t *testing.T) {
	const chunkSize, chunkOverlap = 40, 8
	s, err := NewRecursive(chunkSize, chunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("one two three four five six seven. ", 10)
	chunks := s.Split([]schema.Document{{PageContent: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].PageContent
		tail := prev
		if len(tail) > chunkOverlap {
			tail = tail[len(tail)-chunkOverlap:]
		}
		if !strings.HasPrefix(chunks[i].PageContent, tail) {
			t.Fatalf("chunk %d missing overlap prefix %q: %q", i, tail, chunks[i].PageContent)
		}
	}
}

func TestRecursive_IndivisibleToken(t *testing.T) {
	const chunkSize, chunkOverlap = 20, 4
	s, err := NewRecursive(chunkSize, chunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	// A single token longer than the chunk size has to be cut mid-token.
	text := strings.Repeat("x", 100)
	chunks := s.Split([]schema.Document{{PageContent: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.PageContent) > chunkSize {
			t.Fatalf("chunk %d length %d exceeds %d", i, len(chunk.PageContent), chunkSize)
		}
	}
}

func TestRecursive_MetadataIsolated(t *testing.T) {
	s, err := NewRecursive(40, 8)
	if err != nil {
		t.Fatal(err)
	}
	meta := map[string]interface{}{schema.MetaSource: "doc.md"}
	text := strings.Repeat("words to split across chunks here. ", 8)
	chunks := s.Split([]schema.Document{{PageContent: text, Metadata: meta}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Metadata[schema.MetaSource] != "doc.md" {
			t.Fatalf("chunk %d lost source metadata", i)
		}
		if chunk.Metadata[schema.MetaChunkIndex] != i {
			t.Fatalf("chunk %d has chunk_index %v", i, chunk.Metadata[schema.MetaChunkIndex])
		}
	}
	chunks[0].Metadata[schema.MetaSource] = "mutated"
	if meta[schema.MetaSource] != "doc.md" {
		t.Fatalf("input metadata mutated through chunk")
	}
}
