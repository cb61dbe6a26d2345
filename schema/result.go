package schema

// Source attributes an answer to a retrieved chunk.
type Source struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float32                `json:"score"`
}

// QueryResult is the JSON-serializable outcome of a pipeline query.
// Sources are always populated, in descending relevance order, even when
// the answer text alone would suffice.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
