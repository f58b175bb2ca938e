package embedding

import (
	"errors"
	"math"
)

var errEmptyVector = errors.New("embedding model returned an empty vector")

// meanPool averages token vectors into one sentence vector.
func meanPool(tokens [][]float32) ([]float32, error) {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return nil, errEmptyVector
	}

	dim := len(tokens[0])
	sum := make([]float64, dim)
	for _, tok := range tokens {
		if len(tok) != dim {
			return nil, errors.New("embedding model returned ragged token vectors")
		}
		for i, v := range tok {
			sum[i] += float64(v)
		}
	}

	out := make([]float32, dim)
	for i, v := range sum {
		out[i] = float32(v / float64(len(tokens)))
	}
	return out, nil
}

// l2Normalize scales vec to unit length in place; zero vectors are left untouched.
func l2Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
