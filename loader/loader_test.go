package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-platform/ragcore/schema"
)

func TestService_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	if err := os.WriteFile(path, []byte("hello loader"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := New()
	docs, err := srv.Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].PageContent != "hello loader" {
		t.Fatalf("unexpected content: %q", docs[0].PageContent)
	}
	source, _ := docs[0].Metadata[schema.MetaSource].(string)
	if !strings.Contains(source, "readme.md") {
		t.Fatalf("source metadata missing: %v", docs[0].Metadata)
	}
}

func TestService_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt":        "second",
		"a.md":         "first",
		"sub/c.txt":    "third",
		".hidden.txt":  "skipped",
		"ignored.bin":  "skipped",
		"sub/.git.txt": "skipped",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	srv := New()
	docs, err := srv.Load(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d: %+v", len(docs), docs)
	}
	var contents []string
	for _, doc := range docs {
		contents = append(contents, doc.PageContent)
	}
	joined := strings.Join(contents, "|")
	for _, expect := range []string{"first", "second", "third"} {
		if !strings.Contains(joined, expect) {
			t.Fatalf("missing %q in %v", expect, contents)
		}
	}
}

func TestService_LoadMissing(t *testing.T) {
	srv := New()
	_, err := srv.Load(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_LoadUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}
	srv := New()
	_, err := srv.Load(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for direct file load, got %v", err)
	}
}

func TestService_LoadData(t *testing.T) {
	srv := New()
	doc, err := srv.LoadData("inline.txt", []byte("in memory"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.PageContent != "in memory" || doc.Metadata[schema.MetaSource] != "inline.txt" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}
