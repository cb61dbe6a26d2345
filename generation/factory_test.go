package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestNew_Validation(t *testing.T) {
	testCases := []struct {
		description string
		config      *Config
		expectErr   bool
	}{
		{description: "nil config", config: nil, expectErr: true},
		{description: "openai without key", config: &Config{Provider: "openai"}, expectErr: true},
		{description: "openai with key", config: &Config{Provider: "openai", APIKey: "sk-test"}},
		{description: "ollama without model", config: &Config{Provider: "ollama"}, expectErr: true},
		{description: "ollama with model", config: &Config{Provider: "ollama", Model: "llama3"}},
		{description: "unknown provider", config: &Config{Provider: "acme"}, expectErr: true},
	}
	for _, testCase := range testCases {
		generator, err := New(testCase.config)
		if testCase.expectErr {
			if err == nil {
				t.Fatalf("%v: expected error", testCase.description)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error %v", testCase.description, err)
		}
		if generator == nil {
			t.Fatalf("%v: expected generator", testCase.description)
		}
	}
}

type failingGenerator struct {
	err   error
	calls int
}

func (f *failingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return "", f.err
}

func TestClassify(t *testing.T) {
	wrapped := &classifying{generator: &failingGenerator{err: fmt.Errorf("dial tcp: connection refused")}, retryDelay: time.Millisecond}
	_, err := wrapped.Generate(context.Background(), "q")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	wrapped = &classifying{generator: &failingGenerator{err: context.DeadlineExceeded}, retryDelay: time.Millisecond}
	_, err = wrapped.Generate(context.Background(), "q")
	if !errors.Is(err, ErrProviderTimeout) {
		t.Fatalf("expected ErrProviderTimeout, got %v", err)
	}
}

type flakyGenerator struct {
	failures int
	calls    int
}

func (f *flakyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("connection reset by peer")
	}
	return "recovered", nil
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	flaky := &flakyGenerator{failures: 2}
	wrapped := &classifying{generator: flaky, retryDelay: time.Millisecond}
	text, err := wrapped.Generate(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if text != "recovered" {
		t.Fatalf("unexpected completion: %q", text)
	}
	if flaky.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", flaky.calls)
	}
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	failing := &failingGenerator{err: fmt.Errorf("connection reset by peer")}
	wrapped := &classifying{generator: failing, retryDelay: time.Millisecond}
	_, err := wrapped.Generate(context.Background(), "q")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if failing.calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, failing.calls)
	}
}

func TestGenerate_OpenCircuitNotRetried(t *testing.T) {
	failing := &failingGenerator{err: gobreaker.ErrOpenState}
	wrapped := &classifying{generator: failing, retryDelay: time.Millisecond}
	_, err := wrapped.Generate(context.Background(), "q")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if failing.calls != 1 {
		t.Fatalf("open circuit must not be retried, got %d attempts", failing.calls)
	}
}
