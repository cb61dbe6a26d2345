package splitter

import (
	"strings"

	"github.com/agentic-platform/ragcore/schema"
)

// DefaultChunkSize is the default chunk size in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive chunks.
const DefaultChunkOverlap = 200

// defaultSeparators is the priority list tried when splitting: paragraph
// break, line break, sentence-ending punctuation, space, and finally a
// character-level cut. The coarsest separator that yields pieces within
// the chunk size wins, minimizing mid-sentence breaks.
var defaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// Recursive splits text by recursively trying a priority list of
// separators, producing chunks bounded by chunk size with a configured
// overlap carried across chunk boundaries.
type Recursive struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursive creates a Recursive splitter. It fails when chunkSize is
// not positive or the overlap is negative or not smaller than chunkSize.
func NewRecursive(chunkSize, chunkOverlap int) (*Recursive, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ErrInvalidChunking
	}
	return &Recursive{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// Split divides each document into chunks no longer than the chunk size.
// Every chunk after the first starts with the trailing overlap characters
// of the previous chunk. A document already within the chunk size yields
// exactly one chunk with unmodified content.
func (r *Recursive) Split(docs []schema.Document) []schema.Document {
	var out []schema.Document
	for i := range docs {
		out = append(out, r.splitDocument(&docs[i])...)
	}
	return out
}

func (r *Recursive) splitDocument(doc *schema.Document) []schema.Document {
	pieces := r.splitText(doc.PageContent, r.separators)
	chunks := make([]schema.Document, 0, len(pieces))
	prev := ""
	for i, piece := range pieces {
		content := piece
		if i > 0 && r.chunkOverlap > 0 {
			tail := prev
			if len(tail) > r.chunkOverlap {
				tail = tail[len(tail)-r.chunkOverlap:]
			}
			content = tail + piece
		}
		meta := doc.CloneMetadata()
		meta[schema.MetaChunkIndex] = i
		chunks = append(chunks, schema.Document{PageContent: content, Metadata: meta})
		prev = content
	}
	return chunks
}

// splitText returns pieces whose concatenation equals text. Each piece is
// at most chunkSize-chunkOverlap long so that prefixing the overlap keeps
// the final chunk within chunkSize.
func (r *Recursive) splitText(text string, separators []string) []string {
	limit := r.chunkSize - r.chunkOverlap
	if len(text) <= r.chunkSize {
		return []string{text}
	}
	return r.split(text, separators, limit)
}

func (r *Recursive) split(text string, separators []string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	if len(separators) == 0 {
		return cut(text, limit)
	}
	sep := separators[0]
	if sep == "" {
		return cut(text, limit)
	}
	parts := splitAfter(text, sep)
	if len(parts) == 1 {
		return r.split(text, separators[1:], limit)
	}
	var out []string
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			out = append(out, pending.String())
			pending.Reset()
		}
	}
	for _, part := range parts {
		if len(part) > limit {
			flush()
			out = append(out, r.split(part, separators[1:], limit)...)
			continue
		}
		if pending.Len()+len(part) > limit {
			flush()
		}
		pending.WriteString(part)
	}
	flush()
	return out
}

// splitAfter splits text on sep, keeping the separator at the end of each
// piece so that concatenating the pieces reconstructs the input.
func splitAfter(text, sep string) []string {
	var out []string
	for {
		idx := strings.Index(text, sep)
		if idx < 0 {
			if text != "" || len(out) == 0 {
				out = append(out, text)
			}
			return out
		}
		out = append(out, text[:idx+len(sep)])
		text = text[idx+len(sep):]
	}
}

func cut(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		out = append(out, text[:limit])
		text = text[limit:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
