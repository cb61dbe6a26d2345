// Package config loads pipeline configuration from YAML with optional
// .env and secret-reference expansion for provider credentials.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentic-platform/ragcore/embeddings"
	"github.com/agentic-platform/ragcore/generation"
	"github.com/joho/godotenv"
	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Init when the corresponding field is unset.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultK               = 4
	DefaultProviderTimeout = 60 * time.Second
	DefaultPersistPath     = "ragcore.db"
)

// PersistMemory selects the volatile in-memory store instead of a
// database file.
const PersistMemory = "memory"

// Config defines pipeline settings.
type Config struct {
	ChunkSize              int               `yaml:"chunkSize"`
	ChunkOverlap           int               `yaml:"chunkOverlap"`
	K                      int               `yaml:"k"`
	PersistPath            string            `yaml:"persistPath"`
	ProviderTimeoutSeconds int               `yaml:"providerTimeoutSeconds"`
	ProviderTimeout        time.Duration     `yaml:"-"`
	Embedding              embeddings.Config `yaml:"embedding"`
	Generation             generation.Config `yaml:"generation"`

	// EmbeddingSecret and GenerationSecret are scy secret references; when
	// set, the looked-up secret expands ${...} placeholders in the
	// corresponding api key field.
	EmbeddingSecret  string `yaml:"embeddingSecret,omitempty"`
	GenerationSecret string `yaml:"generationSecret,omitempty"`
}

// Init fills unset fields with defaults and applies environment fallbacks
// for credentials.
func (c *Config) Init() {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap == 0 && c.ChunkSize > DefaultChunkOverlap {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.K == 0 {
		c.K = DefaultK
	}
	if c.PersistPath == "" {
		c.PersistPath = DefaultPersistPath
	}
	if c.ProviderTimeout == 0 {
		if c.ProviderTimeoutSeconds > 0 {
			c.ProviderTimeout = time.Duration(c.ProviderTimeoutSeconds) * time.Second
		} else {
			c.ProviderTimeout = DefaultProviderTimeout
		}
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("RAGCORE_EMBEDDING_API_KEY")
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = os.Getenv("RAGCORE_GENERATION_API_KEY")
	}
}

// Validate reports configuration a pipeline cannot start with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunkSize must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: chunkOverlap must be in [0, chunkSize)")
	}
	if c.K <= 0 {
		return fmt.Errorf("config: k must be positive")
	}
	if c.Embedding.Provider == "" {
		return fmt.Errorf("config: embedding provider is required")
	}
	return nil
}

// Load reads a YAML config file. A .env file next to the working directory
// is merged into the environment first so fallbacks can see it.
func Load(ctx context.Context, path string) (*Config, error) {
	_ = godotenv.Load()
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	// an explicit chunkOverlap: 0 is indistinguishable from an absent key
	// after decoding, so probe presence separately
	var raw struct {
		ChunkOverlap *int `yaml:"chunkOverlap"`
	}
	_ = yaml.Unmarshal(b, &raw)
	cfg.Init()
	if raw.ChunkOverlap != nil {
		cfg.ChunkOverlap = *raw.ChunkOverlap
	}
	if cfg.EmbeddingSecret != "" {
		expanded, err := expandWithSecret(ctx, cfg.Embedding.APIKey, cfg.EmbeddingSecret)
		if err != nil {
			return nil, err
		}
		cfg.Embedding.APIKey = expanded
	}
	if cfg.GenerationSecret != "" {
		expanded, err := expandWithSecret(ctx, cfg.Generation.APIKey, cfg.GenerationSecret)
		if err != nil {
			return nil, err
		}
		cfg.Generation.APIKey = expanded
	}
	if cfg.PersistPath != "" && cfg.PersistPath != PersistMemory {
		expanded, err := expandUserPath(cfg.PersistPath)
		if err != nil {
			return nil, err
		}
		cfg.PersistPath = expanded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandWithSecret loads a secret and expands placeholders in the value.
func expandWithSecret(ctx context.Context, value, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return value, nil
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("config: secret %q provided but value is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", fmt.Errorf("config: lookup secret %q: %w", secretRef, err)
	}
	return sec.Expand(value), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	return filepath.Join(home, trimmed[2:]), nil
}
