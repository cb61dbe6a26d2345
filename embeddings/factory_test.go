package embeddings

import (
	"errors"
	"math"
	"testing"
)

func TestNew_CredentialValidation(t *testing.T) {
	testCases := []struct {
		description string
		config      Config
		expectErr   bool
	}{
		{description: "openai without key", config: Config{Provider: "openai"}, expectErr: true},
		{description: "openai with key", config: Config{Provider: "openai", APIKey: "sk-test"}},
		{description: "ollama without model", config: Config{Provider: "ollama"}, expectErr: true},
		{description: "ollama with model", config: Config{Provider: "ollama", Model: "nomic-embed-text"}},
		{description: "local alias", config: Config{Provider: "local", Model: "nomic-embed-text"}},
		{description: "unknown provider", config: Config{Provider: "acme"}, expectErr: true},
	}
	for _, testCase := range testCases {
		embedder, err := New(testCase.config)
		if testCase.expectErr {
			if !errors.Is(err, ErrProviderUnavailable) {
				t.Fatalf("%v: expected ErrProviderUnavailable, got %v", testCase.description, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error %v", testCase.description, err)
		}
		if embedder == nil {
			t.Fatalf("%v: expected embedder", testCase.description)
		}
	}
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", vec)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("expected unit norm, got %v", norm)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	vec := Normalize([]float32{0, 0, 0})
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("component %d changed: %v", i, v)
		}
	}
}
