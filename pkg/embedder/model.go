// Package embedder provides the sentence-embedding models used to rank keyphrase
// candidates, and the per-worker registry that owns them.
package embedder

import (
	"context"
	"errors"
	"math"
)

// ErrEmptyInput is returned when Embed is called without texts.
var ErrEmptyInput = errors.New("no texts to embed")

// Model turns texts into fixed-size vectors. A Model is immutable once built and
// safe for concurrent use.
type Model interface {
	ID() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity calculates similarity between two embeddings. Vectors of
// different length or zero magnitude have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// normalize converts embeddings to unit vector
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	magnitude := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= magnitude
	}
	return v
}
