package store

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when either has
// zero norm or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
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
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Score converts a cosine similarity to an integer in [0,100].
func Score(similarity float32) int {
	s := int(math.Round(float64(similarity) * 100))
	return max(0, min(100, s))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineWithNorms is Cosine with precomputed norms.
func cosineWithNorms(q []float32, qn float64, v []float32, vn float64) float32 {
	if qn == 0 || vn == 0 || len(q) != len(v) {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return float32(dot / (qn * vn))
}

// normalized returns a unit-length copy of v, or nil for a zero vector.
func normalized(v []float32) []float32 {
	n := norm(v)
	if n == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// compareHits orders by score descending, then ChunkID ascending.
func compareHits(a, b Hit) int {
	if a.Score != b.Score {
		return b.Score - a.Score
	}
	switch {
	case a.ChunkID < b.ChunkID:
		return -1
	case a.ChunkID > b.ChunkID:
		return 1
	}
	return 0
}
