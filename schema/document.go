package schema

// Document represents a text chunk with optional metadata and score.
// It is the unit of ingestion and retrieval across this repository.
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	// Score is optional and populated by similarity search.
	Score float32 `json:"score,omitempty"`
}

// CloneMetadata returns a shallow copy of the document metadata, never nil,
// so callers can extend it without mutating the parent.
func (d *Document) CloneMetadata() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Metadata)+2)
	for k, v := range d.Metadata {
		out[k] = v
	}
	return out
}

// Metadata keys populated by the ingestion path.
const (
	// MetaSource identifies the origin of a document (path, URL or "memory").
	MetaSource = "source"
	// MetaChunkIndex is the 0-based position of a chunk within its parent document.
	MetaChunkIndex = "chunk_index"
)
