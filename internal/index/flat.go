// Package index implements the exact nearest-neighbor index the corpus is
// served from: a flat, insertion-ordered vector store scanned brute-force
// under Euclidean (L2) distance. At corpus scale (thousands of vectors) a
// full scan is sub-millisecond, so no approximate structure is used.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// Flat holds all vectors contiguously in insertion order. Read-only once
// built: a rebuild produces a new instance, never mutates one being served.
type Flat struct {
	dim  int
	data []float32 // row-major, len == dim * count
}

// Hit is one search result: the vector's insertion position and its true
// L2 distance to the query.
type Hit struct {
	Position int
	Distance float64
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimensions returns the fixed vector dimension.
func (f *Flat) Dimensions() int { return f.dim }

// Count returns the number of stored vectors.
func (f *Flat) Count() int { return len(f.data) / f.dim }

// Append adds a vector at the next insertion position.
func (f *Flat) Append(vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("index: append vector dim %d != index dim %d: %w",
			len(vec), f.dim, domain.ErrVectorDimMismatch)
	}
	f.data = append(f.data, vec...)
	return nil
}

// Vector returns a copy of the vector at position i.
func (f *Flat) Vector(i int) []float32 {
	out := make([]float32, f.dim)
	copy(out, f.data[i*f.dim:(i+1)*f.dim])
	return out
}

// Search scans every stored vector and returns the min(k, Count()) nearest
// hits ascending by distance. Equal distances keep insertion order, lower
// position first.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("index: query dim %d != index dim %d: %w",
			len(query), f.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, fmt.Errorf("index: k must be positive, got %d", k)
	}

	count := f.Count()
	if count == 0 {
		return nil, nil
	}

	// Rank by squared distance: the ordering is identical and the sqrt is
	// paid only for the returned hits.
	sq := make([]float64, count)
	for i := 0; i < count; i++ {
		sq[i] = squaredL2(query, f.data[i*f.dim:(i+1)*f.dim])
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sq[order[a]] < sq[order[b]]
	})

	if k > count {
		k = count
	}
	hits := make([]Hit, k)
	for i := 0; i < k; i++ {
		pos := order[i]
		hits[i] = Hit{Position: pos, Distance: math.Sqrt(sq[pos])}
	}
	return hits, nil
}

// squaredL2 accumulates in float64 to keep precision over long vectors.
func squaredL2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}
