package vectordb

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	testCases := []struct {
		description string
		a, b        []float32
		expect      float32
	}{
		{description: "identical", a: []float32{1, 0}, b: []float32{1, 0}, expect: 1},
		{description: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expect: 0},
		{description: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expect: -1},
		{description: "empty", a: nil, b: []float32{1}, expect: 0},
		{description: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expect: 0},
	}
	for _, testCase := range testCases {
		got := Cosine(testCase.a, testCase.b)
		if math.Abs(float64(got-testCase.expect)) > 1e-6 {
			t.Fatalf("%v: expected %v, got %v", testCase.description, testCase.expect, got)
		}
	}
}

func TestEncodeDecodeEmbedding(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	decoded, err := DecodeEmbedding(EncodeEmbedding(vec))
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("dimension mismatch: %d vs %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Fatalf("component %d: expected %v, got %v", i, vec[i], decoded[i])
		}
	}
}

func TestDecodeEmbedding_Invalid(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2}); err == nil {
		t.Fatal("expected error for short blob")
	}
	blob := EncodeEmbedding([]float32{1, 2, 3})
	if _, err := DecodeEmbedding(blob[:len(blob)-1]); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint("text-embedding-3-small")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fingerprint("text-embedding-3-small")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("fingerprint not stable: %v vs %v", a, b)
	}
	c, err := Fingerprint("nomic-embed-text")
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatalf("distinct models collided: %v", a)
	}
}
