package mem

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/vectordb"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/bintly"
)

const snapshotExt = ".dat"

// Persist writes one snapshot per collection under the configured base
// URL. It is a no-op when no base URL was set.
func (s *Store) Persist(ctx context.Context) error {
	if s.baseURL == "" {
		return nil
	}
	s.RLock()
	collections := make([]*collection, 0, len(s.collections))
	for _, col := range s.collections {
		collections = append(collections, col)
	}
	s.RUnlock()

	for _, col := range collections {
		data, err := s.encode(col)
		if err != nil {
			return err
		}
		if err := s.upload(ctx, col.name, data); err != nil {
			return err
		}
	}
	return nil
}

// persistLocked writes one collection's snapshot. The caller holds the
// collection lock.
func (s *Store) persistLocked(ctx context.Context, col *collection) error {
	data, err := s.encodeLocked(col)
	if err != nil {
		return err
	}
	return s.upload(ctx, col.name, data)
}

func (s *Store) upload(ctx context.Context, name string, data []byte) error {
	dest := s.snapshotURL(name)
	if ok, _ := s.fs.Exists(ctx, dest); ok {
		_ = s.fs.Delete(ctx, dest)
	}
	return s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (s *Store) load(ctx context.Context) error {
	if s.baseURL == "" {
		return nil
	}
	if ok, _ := s.fs.Exists(ctx, s.baseURL); !ok {
		return nil
	}
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return err
	}
	for _, object := range objects {
		if object.IsDir() || path.Ext(object.Name()) != snapshotExt {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return err
		}
		col, err := decode(data)
		if err != nil {
			return err
		}
		s.Lock()
		s.collections[col.name] = col
		s.Unlock()
	}
	return nil
}

func (s *Store) snapshotURL(name string) string {
	builder := strings.Builder{}
	builder.WriteString("collection_")
	builder.WriteString(sanitize(name))
	builder.WriteString(snapshotExt)
	return url.Join(s.baseURL, builder.String())
}

func (s *Store) encode(col *collection) ([]byte, error) {
	col.RLock()
	defer col.RUnlock()
	return s.encodeLocked(col)
}

func (s *Store) encodeLocked(col *collection) ([]byte, error) {
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)

	writer.String(col.name)
	writer.Int(col.dim)
	writer.Int(int(col.fp))
	writer.Int(len(col.entries))
	for i := range col.entries {
		e := &col.entries[i]
		writer.String(e.id)
		writer.Uint8s(vectordb.EncodeEmbedding(e.vector))
		doc := vectordb.Document(e.doc)
		if err := doc.EncodeBinary(writer); err != nil {
			return nil, err
		}
	}
	return writer.Bytes(), nil
}

func decode(data []byte) (*collection, error) {
	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return nil, err
	}

	col := &collection{}
	reader.String(&col.name)
	reader.Int(&col.dim)
	var fp int
	reader.Int(&fp)
	col.fp = uint64(fp)
	var count int
	reader.Int(&count)
	col.entries = make([]entry, count)
	for i := 0; i < count; i++ {
		e := &col.entries[i]
		reader.String(&e.id)
		var blob []byte
		reader.Uint8s(&blob)
		vec, err := vectordb.DecodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		e.vector = vec
		var doc vectordb.Document
		if err := doc.DecodeBinary(reader); err != nil {
			return nil, err
		}
		e.doc = schema.Document(doc)
	}
	return col, nil
}

// sanitize converts collection names to a filesystem-friendly token.
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
