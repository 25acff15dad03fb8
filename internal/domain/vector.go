package domain

import "math"

// Vector is a dense embedding vector.
type Vector []float32

func (v Vector) Dim() int {
	return len(v)
}

// IsEmpty reports whether the vector carries no components.
func (v Vector) IsEmpty() bool {
	return len(v) == 0
}

// Dot returns the dot product of v and o. Callers must check dimensions.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	for i := range v {
		sum += float64(v[i]) * float64(o[i])
	}
	return sum
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Cosine returns the cosine similarity of v and o. A zero-norm operand yields 0.
func (v Vector) Cosine(o Vector) (float64, error) {
	if len(v) != len(o) {
		return 0, &DimensionMismatchError{Expected: len(v), Got: len(o)}
	}

	var dot, normA, normB float64
	for i := range v {
		a, b := float64(v[i]), float64(o[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
