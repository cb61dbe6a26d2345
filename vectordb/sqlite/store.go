// Package sqlite provides a durable vector store backed by sqlite-vec.
// Scores returned by similarity search are cosine similarities: higher
// is better and results are ordered descending.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agentic-platform/ragcore/schema"
	"github.com/agentic-platform/ragcore/vectordb"
	"github.com/google/uuid"
	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"
)

const (
	defaultBusyTimeoutMS = 5000
	defaultVTable        = "rag_entries"
	// minCandidates bounds the MATCH pre-selection so small collections
	// are always ranked exactly.
	minCandidates = 64
)

// Store is a sqlite-vec backed vectordb.Store. Every Upsert commits in a
// single transaction before returning; a caller may crash immediately
// after Upsert and observe the write on restart.
type Store struct {
	db            *sql.DB
	dsn           string
	vtable        string
	shadow        string
	embedModel    string
	openedLocally bool

	mu      sync.Mutex
	writers map[string]*sync.Mutex
}

// Option configures the sqlite store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/db.sqlite).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithVTable sets the vec virtual table name (default: rag_entries).
func WithVTable(name string) Option {
	return func(s *Store) { s.vtable = name }
}

// WithEmbeddingModel records the embedding configuration fingerprinted on
// each collection.
func WithEmbeddingModel(model string) Option {
	return func(s *Store) { s.embedModel = model }
}

// New opens and initializes a sqlite Store.
func New(opts ...Option) (*Store, error) {
	s := &Store{writers: map[string]*sync.Mutex{}, vtable: defaultVTable}
	for _, opt := range opts {
		opt(s)
	}
	if s.vtable == "" {
		s.vtable = defaultVTable
	}
	s.shadow = "_vec_" + s.vtable
	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlite: dsn required")
		}
		db, err := engine.Open(ensurePragmas(s.dsn, defaultBusyTimeoutMS))
		if err != nil {
			return nil, err
		}
		s.db = db
		s.db.SetMaxOpenConns(4)
		s.db.SetMaxIdleConns(4)
		s.openedLocally = true
	}
	if err := vec.Register(s.db); err != nil {
		return nil, err
	}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying DB if the Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		// bookkeeping required by the vec module's shadow-table sync
		`CREATE TABLE IF NOT EXISTS vec_dataset (
			dataset_id   TEXT PRIMARY KEY,
			description  TEXT,
			source_uri   TEXT,
			last_scn     INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS vec_dataset_scn (
			dataset_id TEXT PRIMARY KEY,
			next_scn   INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS vec_shadow_log (
			dataset_id   TEXT NOT NULL,
			shadow_table TEXT NOT NULL,
			scn          INTEGER NOT NULL,
			op           TEXT NOT NULL,
			document_id  TEXT NOT NULL,
			payload      BLOB NOT NULL,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(dataset_id, shadow_table, scn)
		);`,
		`CREATE TABLE IF NOT EXISTS vec_sync_state (
			dataset_id   TEXT NOT NULL,
			shadow_table TEXT NOT NULL,
			last_scn     INTEGER NOT NULL DEFAULT 0,
			updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(dataset_id, shadow_table)
		);`,
		`CREATE TABLE IF NOT EXISTS vector_storage (
			shadow_table_name TEXT NOT NULL,
			dataset_id        TEXT NOT NULL DEFAULT '',
			"index"           BLOB,
			PRIMARY KEY (shadow_table_name, dataset_id)
		);`,
		`CREATE TABLE IF NOT EXISTS rag_collection (
			name       TEXT PRIMARY KEY,
			dim        INTEGER NOT NULL,
			model_fp   INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			asset_id         TEXT NOT NULL,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			scn              INTEGER NOT NULL,
			archived         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, id)
		);`, s.shadow),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, s.vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_scn ON %s(dataset_id, scn);`, s.vtable, s.shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_archived ON %s(dataset_id, archived);`, s.vtable, s.shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// writerFor returns the per-collection writer lock. Writers to one
// collection are serialized; writers to different collections run in
// parallel.
func (s *Store) writerFor(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.writers[collection]
	if !ok {
		m = &sync.Mutex{}
		s.writers[collection] = m
	}
	return m
}

// Upsert appends entries to a collection inside one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, docs []schema.Document, vectors [][]float32) ([]string, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%w: %d documents, %d embeddings", vectordb.ErrLengthMismatch, len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", vectordb.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	fp, err := vectordb.Fingerprint(s.embedModel)
	if err != nil {
		return nil, err
	}

	writer := s.writerFor(collection)
	writer.Lock()
	defer writer.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingDim int
	row := tx.QueryRowContext(ctx, `SELECT dim FROM rag_collection WHERE name = ?`, collection)
	switch scanErr := row.Scan(&existingDim); scanErr {
	case sql.ErrNoRows:
		if _, err = tx.ExecContext(ctx, `INSERT INTO rag_collection(name, dim, model_fp) VALUES(?,?,?)`, collection, dim, int64(fp)); err != nil {
			return nil, err
		}
	case nil:
		if existingDim != dim {
			err = fmt.Errorf("%w: collection %q holds %d-dimensional vectors, got %d", vectordb.ErrDimensionMismatch, collection, existingDim, dim)
			return nil, err
		}
	default:
		err = scanErr
		return nil, err
	}

	var scn int64
	if err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(scn), 0) FROM %s WHERE dataset_id = ?`, s.shadow), collection).Scan(&scn); err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(dataset_id, id, asset_id, content, meta, embedding, embedding_model, scn, archived)
VALUES(?,?,?,?,?,?,?,?,0)`, s.shadow))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, len(docs))
	for i := range docs {
		metaJSON, mErr := json.Marshal(docs[i].Metadata)
		if mErr != nil {
			err = mErr
			return nil, err
		}
		blob, eErr := vector.EncodeEmbedding(vectors[i])
		if eErr != nil {
			err = eErr
			return nil, err
		}
		id := uuid.New().String()
		assetID := id
		if v, ok := docs[i].Metadata[schema.MetaSource].(string); ok && v != "" {
			assetID = v
		}
		scn++
		if _, err = stmt.ExecContext(ctx, collection, id, assetID, docs[i].PageContent, string(metaJSON), blob, s.embedModel, scn); err != nil {
			return nil, err
		}
		ids[i] = id
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch ranks a collection's entries by cosine similarity.
// Without a filter the vec virtual table pre-selects candidates which
// are re-ranked exactly; with a filter the collection is scanned so the
// filter applies before ranking.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, query []float32, k int, opts ...vectordb.SearchOption) ([]schema.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", vectordb.ErrInvalidK, k)
	}
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", vectordb.ErrCollectionNotFound, collection)
	}
	options := vectordb.NewOptions(opts...)
	if options.Filter != nil {
		return s.scanSearch(ctx, collection, query, k, options.Filter)
	}
	hits, err := s.matchSearch(ctx, collection, query, k)
	if err != nil && isNoVecModule(err) {
		return s.scanSearch(ctx, collection, query, k, nil)
	}
	return hits, err
}

// matchSearch pre-selects candidates with a MATCH query over the vec
// virtual table, then re-scores them in Go so ordering and tie-breaks
// match the scan path.
func (s *Store) matchSearch(ctx context.Context, collection string, query []float32, k int) ([]schema.Document, error) {
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	candidates := k * 4
	if candidates < minCandidates {
		candidates = minCandidates
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT d.content, d.meta, d.embedding, d.scn
FROM %s v
JOIN %s d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
  AND d.archived = 0
ORDER BY v.match_score DESC
LIMIT ?`, s.vtable, s.shadow), collection, blob, candidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type hit struct {
		doc schema.Document
		scn int64
	}
	var hits []hit
	for rows.Next() {
		var content, metaJSON string
		var emb []byte
		var scn int64
		if err := rows.Scan(&content, &metaJSON, &emb, &scn); err != nil {
			return nil, err
		}
		meta, err := decodeMeta(metaJSON)
		if err != nil {
			return nil, err
		}
		v, err := vector.DecodeEmbedding(emb)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit{
			doc: schema.Document{PageContent: content, Metadata: meta, Score: vectordb.Cosine(query, v)},
			scn: scn,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].doc.Score != hits[j].doc.Score {
			return hits[i].doc.Score > hits[j].doc.Score
		}
		return hits[i].scn < hits[j].scn
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]schema.Document, len(hits))
	for i := range hits {
		out[i] = hits[i].doc
	}
	return out, nil
}

// scanSearch ranks every live entry of a collection in insertion order.
func (s *Store) scanSearch(ctx context.Context, collection string, query []float32, k int, filter vectordb.Filter) ([]schema.Document, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT content, meta, embedding FROM %s WHERE dataset_id = ? AND archived = 0 ORDER BY scn`, s.shadow), collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []schema.Document
	for rows.Next() {
		var content, metaJSON string
		var emb []byte
		if err := rows.Scan(&content, &metaJSON, &emb); err != nil {
			return nil, err
		}
		meta, err := decodeMeta(metaJSON)
		if err != nil {
			return nil, err
		}
		if filter != nil && !filter(meta) {
			continue
		}
		v, err := vector.DecodeEmbedding(emb)
		if err != nil {
			return nil, err
		}
		hits = append(hits, schema.Document{
			PageContent: content,
			Metadata:    meta,
			Score:       vectordb.Cosine(query, v),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func decodeMeta(metaJSON string) (map[string]interface{}, error) {
	meta := map[string]interface{}{}
	if metaJSON == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func isNoVecModule(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such module: vec") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "unable to use function MATCH")
}

// CollectionExists reports whether the named collection has been created.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rag_collection WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Collections lists known collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM rag_collection ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
