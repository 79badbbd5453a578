package flat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// Index is an exhaustive squared-Euclidean nearest-neighbour index. Positions
// are assigned in insertion order and never change until Reset.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

func New() *Index { return &Index{} }

func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dimension = 0
	x.vectors = nil
	x.chunks = nil
}

// Add appends vector/chunk pairs. Pairs with an empty vector or with a
// dimension different from the first indexed vector are skipped. It returns
// the number of pairs actually indexed.
func (x *Index) Add(vectors [][]float32, chunks []domain.Chunk) (int, error) {
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("flat index add: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	added := 0
	for i, vector := range vectors {
		if len(vector) == 0 {
			continue
		}
		if x.dimension == 0 {
			x.dimension = len(vector)
		}
		if len(vector) != x.dimension {
			continue
		}
		stored := make([]float32, len(vector))
		copy(stored, vector)
		x.vectors = append(x.vectors, stored)
		x.chunks = append(x.chunks, chunks[i])
		added++
	}
	return added, nil
}

// Search returns up to k hits ordered by ascending distance; ties keep
// insertion order. A query of the wrong dimension matches nothing.
func (x *Index) Search(query []float32, k int) []domain.IndexHit {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.vectors) == 0 || len(query) != x.dimension {
		return nil
	}

	hits := make([]domain.IndexHit, len(x.vectors))
	for i, vector := range x.vectors {
		hits[i] = domain.IndexHit{Position: i, Distance: SquaredL2(query, vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimension
}

func (x *Index) Chunk(position int) (domain.Chunk, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if position < 0 || position >= len(x.chunks) {
		return domain.Chunk{}, false
	}
	return x.chunks[position], true
}

// Chunks returns a copy of the indexed chunks in position order.
func (x *Index) Chunks() []domain.Chunk {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.Chunk, len(x.chunks))
	copy(out, x.chunks)
	return out
}

func SquaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Similarity maps a distance to [0, 1]; distances at or past cutoff map to 0.
func Similarity(distance, cutoff float64) float64 {
	if cutoff <= 0 {
		return 0
	}
	if distance > cutoff {
		distance = cutoff
	}
	if distance < 0 {
		distance = 0
	}
	return 1 - distance/cutoff
}
