package flat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

func chunk(text string) domain.Chunk {
	return domain.Chunk{Text: text, Page: 1}
}

func TestIndexSearchOrdersByDistance(t *testing.T) {
	x := New()
	added, err := x.Add(
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
		[]domain.Chunk{chunk("a"), chunk("b"), chunk("c")},
	)
	require.NoError(t, err)
	require.Equal(t, 3, added)

	hits := x.Search([]float32{1, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, 0, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)
	assert.Equal(t, 1, hits[2].Position)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
	assert.InDelta(t, 2.0, hits[2].Distance, 1e-9)
}

func TestIndexSearchTiesKeepInsertionOrder(t *testing.T) {
	x := New()
	_, err := x.Add(
		[][]float32{{0, 1}, {1, 0}, {0, 1}},
		[]domain.Chunk{chunk("first"), chunk("other"), chunk("second")},
	)
	require.NoError(t, err)

	hits := x.Search([]float32{0, 1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)
}

func TestIndexAddSkipsEmptyAndMismatchedVectors(t *testing.T) {
	x := New()
	added, err := x.Add(
		[][]float32{{1, 0, 0}, nil, {1, 0}, {0, 0, 1}},
		[]domain.Chunk{chunk("a"), chunk("b"), chunk("c"), chunk("d")},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, 3, x.Dimension())

	got, ok := x.Chunk(1)
	require.True(t, ok)
	assert.Equal(t, "d", got.Text)
}

func TestIndexAddRejectsLengthMismatch(t *testing.T) {
	x := New()
	_, err := x.Add([][]float32{{1}}, nil)
	require.Error(t, err)
	assert.Zero(t, x.Len())
}

func TestIndexSearchEdgeCases(t *testing.T) {
	x := New()
	assert.Empty(t, x.Search([]float32{1}, 5))

	_, err := x.Add([][]float32{{1, 0}}, []domain.Chunk{chunk("a")})
	require.NoError(t, err)
	assert.Empty(t, x.Search([]float32{1, 0, 0}, 5))
	assert.Empty(t, x.Search([]float32{1, 0}, 0))
	assert.Len(t, x.Search([]float32{1, 0}, 10), 1)

	x.Reset()
	assert.Zero(t, x.Len())
	_, ok := x.Chunk(0)
	assert.False(t, ok)
}

func TestIndexCopiesVectors(t *testing.T) {
	x := New()
	vector := []float32{1, 0}
	_, err := x.Add([][]float32{vector}, []domain.Chunk{chunk("a")})
	require.NoError(t, err)
	vector[0] = 100

	hits := x.Search([]float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-9)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity(0, 2.5), 1e-9)
	assert.InDelta(t, 0.6, Similarity(1, 2.5), 1e-9)
	assert.InDelta(t, 0.0, Similarity(2.5, 2.5), 1e-9)
	assert.InDelta(t, 0.0, Similarity(9, 2.5), 1e-9)
	assert.Zero(t, Similarity(1, 0))
}
