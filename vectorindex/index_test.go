package vectorindex

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxlaw-backend/config"
)

func TestMemory_Query(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.EnsureIndex(ctx, 3))

	require.NoError(t, m.Upsert(ctx, []Record{
		{ID: "ito-0", Source: "ito.txt", ChunkIndex: 0, Content: "rebate", Vector: []float32{1, 0, 0}},
		{ID: "ito-1", Source: "ito.txt", ChunkIndex: 1, Content: "slab", Vector: []float32{0, 1, 0}},
		{ID: "sro-0", Source: "sro.pdf", ChunkIndex: 0, Content: "surcharge", Vector: []float32{0.9, 0.1, 0}},
	}))

	got, err := m.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ito-0", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "sro-0", got[1].ID)
	assert.Equal(t, "sro.pdf", got[1].Source)
}

func TestMemory_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Upsert(ctx, []Record{{ID: "a", Content: "old", Vector: []float32{1, 0}}}))
	require.NoError(t, m.Upsert(ctx, []Record{{ID: "a", Content: "new", Vector: []float32{0, 1}}}))
	assert.Equal(t, 1, m.Len())

	got, err := m.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.EnsureIndex(ctx, 2))
	assert.ErrorIs(t, m.EnsureIndex(ctx, 3), ErrDimensionMismatch)
	assert.ErrorIs(t, m.Upsert(ctx, []Record{{ID: "x", Vector: []float32{1}}}), ErrDimensionMismatch)

	require.NoError(t, m.Upsert(ctx, []Record{{ID: "y", Vector: []float32{1, 1}}}))
	_, err := m.Query(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemory_EmptyAndZeroVectors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	got, err := m.Query(ctx, []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Upsert(ctx, []Record{{ID: "z", Vector: []float32{0, 0}}}))
	got, err = m.Query(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Score)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Upsert(ctx, []Record{{ID: string(rune('a' + i)), Vector: []float32{float32(i), 1}}})
			_, _ = m.Query(ctx, []float32{1, 1}, 3)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, m.Len())
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "tax_law_index", CollectionName("tax-law-index"))
	assert.Equal(t, "_2024_laws", CollectionName("2024-laws"))
	assert.Equal(t, "tax_law_index", CollectionName(""))
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.500000,-1.000000]", formatVector([]float32{0.5, -1}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "ab", truncateRunes("abcd", 2))
	s := "কর"
	assert.Equal(t, "ক", truncateRunes(s, 4))
}

func TestNew(t *testing.T) {
	idx, err := New(context.Background(), &config.Settings{VectorIndex: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, idx)

	_, err = New(context.Background(), &config.Settings{VectorIndex: "pgvector"}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Settings{VectorIndex: "pinecone"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
