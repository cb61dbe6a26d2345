package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-platform/ragcore/embeddings/ollama"
	"github.com/agentic-platform/ragcore/embeddings/openai"
)

// Config selects and configures an embedding provider by key rather than
// by vendor-specific construction.
type Config struct {
	// Provider is the provider key: "openai" or "ollama".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKey is required for remote providers; validated at construction.
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
}

// New constructs an Embedder for the configured provider. Missing
// credentials or model artifacts surface here, before any expensive work.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai embeddings require an API key", ErrProviderUnavailable)
		}
		client := openai.NewClient(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			client.BaseURL = cfg.BaseURL
		}
		return &normalizing{next: &openai.Embedder{C: client}}, nil
	case "ollama", "local":
		if cfg.Model == "" {
			return nil, fmt.Errorf("%w: ollama embeddings require a model", ErrProviderUnavailable)
		}
		return &normalizing{next: &ollama.Embedder{C: ollama.NewClient(cfg.Model, cfg.BaseURL)}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown embeddings provider %q", ErrProviderUnavailable, cfg.Provider)
	}
}

// normalizing wraps a provider so every vector leaves the package with
// unit L2 norm and deadline failures carry the timeout sentinel.
type normalizing struct {
	next Embedder
}

func (n *normalizing) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	vecs, err := n.next.EmbedDocuments(ctx, docs)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return NormalizeAll(vecs), nil
}

func (n *normalizing) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := n.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return Normalize(vec), nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return err
}
