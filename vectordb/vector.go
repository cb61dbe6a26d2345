package vectordb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint hashes an embedding configuration (model identity) so a
// collection can record which configuration produced its vectors.
func Fingerprint(model string) (uint64, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write([]byte(model)); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// EncodeEmbedding encodes a vector as a little-endian blob prefixed with
// its dimension.
func EncodeEmbedding(vec []float32) []byte {
	out := make([]byte, 4+4*len(vec))
	binary.LittleEndian.PutUint32(out, uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[4+4*i:], math.Float32bits(v))
	}
	return out
}

// DecodeEmbedding decodes a blob produced by EncodeEmbedding.
func DecodeEmbedding(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("vectordb: embedding blob too short: %d bytes", len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+4*dim {
		return nil, fmt.Errorf("vectordb: embedding blob size %d does not match dimension %d", len(data), dim)
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b. Vectors stored by this
// package are unit-normalized, so this matches the dot product for them.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float32
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}
