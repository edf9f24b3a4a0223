package embedder

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions matches the output size of the common MiniLM sentence models.
const DefaultDimensions = 384

// HashModel is a local, deterministic embedding model. Words and their character
// trigrams are hashed into a fixed number of signed buckets; the hash is seeded with
// the model identifier, so two identifiers give unrelated vector spaces while one
// identifier always gives the same vectors for the same text.
type HashModel struct {
	id         string
	seed       uint64
	dimensions int
}

// NewHashModel builds a hash model for id. Non-positive dimensions fall back to DefaultDimensions.
func NewHashModel(id string, dimensions int) *HashModel {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return &HashModel{id: id, seed: h.Sum64(), dimensions: dimensions}
}

func (m *HashModel) ID() string { return m.id }

// Dimensions returns the vector size.
func (m *HashModel) Dimensions() int { return m.dimensions }

func (m *HashModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.embed(text)
	}
	return out, nil
}

func (m *HashModel) embed(text string) []float32 {
	v := make([]float32, m.dimensions)
	for _, word := range tokenize(strings.ToLower(text)) {
		m.add(v, "w:"+word, 1)

		runes := []rune("^" + word + "$")
		for i := 0; i+3 <= len(runes); i++ {
			m.add(v, "c:"+string(runes[i:i+3]), 0.5)
		}
	}
	return normalize(v)
}

func (m *HashModel) add(v []float32, feature string, weight float32) {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], m.seed)

	h := fnv.New64a()
	_, _ = h.Write(seed[:])
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(m.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

// tokenize splits text into words
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
