// Package generation defines the text generation contract used to produce
// answers from retrieved context.
package generation

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable indicates the backing model service rejected or
	// could not serve the request.
	ErrProviderUnavailable = errors.New("generation: provider unavailable")
	// ErrProviderTimeout indicates the model did not answer within the
	// allotted time.
	ErrProviderTimeout = errors.New("generation: provider timeout")
)

// Generator produces a completion for a prompt assembled from retrieved
// context and the user question.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
