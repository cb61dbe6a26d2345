package vectordb

import (
	"testing"
	"time"

	"github.com/viant/bintly"
)

func TestDocument_BinaryRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	doc := Document{
		PageContent: "chunk content",
		Metadata: map[string]interface{}{
			"source":      "a.txt",
			"chunk_index": 3,
			"weight":      float32(0.5),
			"ratio":       0.25,
			"indexed_at":  now,
			"draft":       true,
			"pages":       int64(12),
		},
	}

	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)
	if err := doc.EncodeBinary(writer); err != nil {
		t.Fatal(err)
	}
	data := writer.Bytes()

	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		t.Fatal(err)
	}
	var decoded Document
	if err := decoded.DecodeBinary(reader); err != nil {
		t.Fatal(err)
	}
	if decoded.PageContent != doc.PageContent {
		t.Fatalf("content mismatch: %q", decoded.PageContent)
	}
	if decoded.Metadata["source"] != "a.txt" || decoded.Metadata["chunk_index"] != 3 {
		t.Fatalf("metadata mismatch: %v", decoded.Metadata)
	}
	if decoded.Metadata["weight"] != float32(0.5) || decoded.Metadata["ratio"] != 0.25 {
		t.Fatalf("numeric metadata mismatch: %v", decoded.Metadata)
	}
	ts, ok := decoded.Metadata["indexed_at"].(time.Time)
	if !ok || !ts.Equal(now) {
		t.Fatalf("time metadata mismatch: %v", decoded.Metadata["indexed_at"])
	}
	if decoded.Metadata["draft"] != true {
		t.Fatalf("bool metadata mismatch: %v", decoded.Metadata["draft"])
	}
	// integer widths fold into int
	if decoded.Metadata["pages"] != 12 {
		t.Fatalf("int64 metadata mismatch: %v", decoded.Metadata["pages"])
	}
}

func TestDocument_CompositeMetadataRoundTrip(t *testing.T) {
	doc := Document{
		PageContent: "x",
		Metadata: map[string]interface{}{
			"tags":  []string{"go", "rag"},
			"extra": map[string]interface{}{"depth": 2.0},
		},
	}
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)
	if err := doc.EncodeBinary(writer); err != nil {
		t.Fatal(err)
	}
	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(writer.Bytes()); err != nil {
		t.Fatal(err)
	}
	var decoded Document
	if err := decoded.DecodeBinary(reader); err != nil {
		t.Fatal(err)
	}
	tags, ok := decoded.Metadata["tags"].([]interface{})
	if !ok || len(tags) != 2 || tags[0] != "go" || tags[1] != "rag" {
		t.Fatalf("slice metadata mismatch: %v", decoded.Metadata["tags"])
	}
	extra, ok := decoded.Metadata["extra"].(map[string]interface{})
	if !ok || extra["depth"] != 2.0 {
		t.Fatalf("map metadata mismatch: %v", decoded.Metadata["extra"])
	}
}
