// Package splitter turns documents into bounded, overlapping chunks
// suitable for embedding.
package splitter

import (
	"errors"

	"github.com/agentic-platform/ragcore/schema"
)

// ErrInvalidChunking indicates invalid chunk size/overlap parameters.
var ErrInvalidChunking = errors.New("splitter: chunk overlap must be non-negative and smaller than chunk size")

// Splitter defines the interface for content splitting strategies.
type Splitter interface {
	// Split divides documents into chunks. Chunk metadata is copied from
	// the parent document with the chunk position added.
	Split(docs []schema.Document) []schema.Document
}
