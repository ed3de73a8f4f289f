package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceAndGet(t *testing.T) {
	f := NewFragmenter(1)
	batch := map[uint64]ChunkStats{
		1: {Min: int64(3), Max: int64(9)},
		2: {Min: int64(1), Max: int64(5), HasNulls: true},
	}
	f.ReplaceChunkStats(0, []uint64{1, 2}, batch, TierDurable)

	cs, ok := f.GetChunkStats(0, 1, TierDurable)
	require.True(t, ok)
	assert.Equal(t, int64(3), cs.Min)
	assert.Equal(t, int64(9), cs.Max)
	assert.False(t, cs.HasNulls)

	cs, ok = f.GetChunkStats(0, 2, TierDurable)
	require.True(t, ok)
	assert.True(t, cs.HasNulls)
	assert.Equal(t, 2, f.CountChunkStats(0))

	// A scoped partition missing from the batch loses its entry.
	f.ReplaceChunkStats(0, []uint64{2}, nil, TierDurable)
	_, ok = f.GetChunkStats(0, 2, TierDurable)
	assert.False(t, ok)
	assert.Equal(t, 1, f.CountChunkStats(0))

	// Partitions outside the scope are untouched.
	_, ok = f.GetChunkStats(0, 1, TierDurable)
	assert.True(t, ok)
}

func TestTierOverlay(t *testing.T) {
	f := NewFragmenter(1)
	f.ReplaceChunkStats(0, []uint64{1, 2}, map[uint64]ChunkStats{
		1: {Min: int64(0), Max: int64(10)},
		2: {Min: int64(5), Max: int64(6)},
	}, TierDurable)

	f.ReplaceChunkStats(0, []uint64{1}, map[uint64]ChunkStats{
		1: {Min: int64(2), Max: int64(8)},
	}, TierCPU)

	cs, ok := f.GetChunkStats(0, 1, TierCPU)
	require.True(t, ok)
	assert.Equal(t, int64(2), cs.Min)
	cs, ok = f.GetChunkStats(0, 1, TierDurable)
	require.True(t, ok)
	assert.Equal(t, int64(0), cs.Min)

	// An overlay entry recording absence shadows the durable copy.
	f.ReplaceChunkStats(0, []uint64{2}, nil, TierCPU)
	_, ok = f.GetChunkStats(0, 2, TierCPU)
	assert.False(t, ok)
	_, ok = f.GetChunkStats(0, 2, TierDurable)
	assert.True(t, ok)

	// A durable replace supersedes the overlays.
	f.ReplaceChunkStats(0, []uint64{1, 2}, map[uint64]ChunkStats{
		1: {Min: int64(100), Max: int64(200)},
		2: {Min: int64(7), Max: int64(7)},
	}, TierDurable)
	cs, ok = f.GetChunkStats(0, 1, TierCPU)
	require.True(t, ok)
	assert.Equal(t, int64(100), cs.Min)
	cs, ok = f.GetChunkStats(0, 2, TierCPU)
	require.True(t, ok)
	assert.Equal(t, int64(7), cs.Min)
}

func TestNumRows(t *testing.T) {
	f := NewFragmenter(7)
	assert.Equal(t, uint64(0), f.NumRows())
	f.SetNumRows(42)
	assert.Equal(t, uint64(42), f.NumRows())
	t.Log(f.String())
}
