package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/agentic-platform/ragcore/generation/ollama"
	"github.com/agentic-platform/ragcore/generation/openai"
	"github.com/sony/gobreaker"
)

const (
	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Config selects and parameterises a generation provider.
type Config struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"apiKey" json:"apiKey,omitempty"`
	BaseURL  string `yaml:"baseURL" json:"baseURL,omitempty"`
}

// New builds a generator for the configured provider. Credentials are
// validated here so a misconfigured provider fails at construction rather
// than on first use.
func New(cfg *Config) (Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("generation: config was nil")
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("generation: openai api key was empty")
		}
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err := openai.New(cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, err
		}
		return &classifying{generator: client, retryDelay: retryBaseDelay}, nil
	case "ollama", "local":
		if cfg.Model == "" {
			return nil, fmt.Errorf("generation: ollama model was empty")
		}
		var opts []ollama.Option
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.BaseURL))
		}
		return &classifying{generator: ollama.New(cfg.Model, opts...), retryDelay: retryBaseDelay}, nil
	default:
		return nil, fmt.Errorf("generation: unsupported provider: %q", cfg.Provider)
	}
}

// classifying maps transport-level failures onto the package sentinels so
// callers can branch without knowing the provider, and applies the shared
// retry policy: bounded exponential backoff on transient failures. An
// open circuit or cancelled context stops the retries.
type classifying struct {
	generator  Generator
	retryDelay time.Duration
}

func (c *classifying) Generate(ctx context.Context, prompt string) (string, error) {
	delay := c.retryDelay
	if delay <= 0 {
		delay = retryBaseDelay
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(delay) * math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", classify(ctx, ctx.Err())
			case <-time.After(backoff):
			}
		}
		text, err := c.generator.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || ctx.Err() != nil {
			break
		}
	}
	return "", classify(ctx, lastErr)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
