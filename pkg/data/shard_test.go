package data

import (
	"testing"

	"cae/pkg/catalog"
	"cae/pkg/stats"

	"github.com/matrixorigin/matrixone/pkg/container/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockPartition(id uint64, schema *catalog.Schema, vals []int32) *Partition {
	vecs := make([]*vector.Vector, len(schema.ColDefs))
	for i := range schema.ColDefs {
		if i == schema.PhyDelIdx {
			continue
		}
		vecs[i] = int32Vec(vals)
	}
	return NewPartition(id, schema, vecs)
}

func TestShardLayout(t *testing.T) {
	schema := mockDelSchema(1)
	s := NewShard(1, schema)
	require.Nil(t, s.AddPartition(mockPartition(1, schema, []int32{1, 2, 3})))
	require.Nil(t, s.AddPartition(mockPartition(2, schema, []int32{4, 5})))
	assert.Equal(t, ErrDuplicatePartition, s.AddPartition(mockPartition(2, schema, nil)))

	layout := s.GetLayout()
	assert.Equal(t, []uint64{1, 2}, layout.Partitions)
	assert.Equal(t, uint64(5), layout.TotalRows)
	assert.Equal(t, uint32(3), layout.PhysicalRows[1])

	// The layout is cached until dropped or invalidated.
	assert.Equal(t, layout, s.GetLayout())
	require.Nil(t, s.AddPartition(mockPartition(3, schema, []int32{6})))
	layout = s.GetLayout()
	assert.Equal(t, uint64(6), layout.TotalRows)

	require.Nil(t, s.GetPartition(1).RangeDelete(0, 0))
	_, err := s.GetPartition(1).PurgeDeletes()
	require.Nil(t, err)
	assert.Equal(t, uint64(6), s.GetLayout().TotalRows)
	s.DropLayout()
	assert.Equal(t, uint64(5), s.GetLayout().TotalRows)

	assert.Nil(t, s.GetPartition(99))
	assert.Equal(t, 3, len(s.Partitions()))
	t.Log(s.String())
}

func TestCompactor(t *testing.T) {
	schema := mockDelSchema(1)
	s := NewShard(1, schema)
	require.Nil(t, s.AddPartition(mockPartition(1, schema, []int32{1, 2, 3, 4})))
	require.Nil(t, s.GetPartition(1).RangeDelete(0, 1))

	sizeBefore := s.File().Size()
	c := NewCompactor(1)
	c.Enqueue(s)
	c.Wait()
	assert.True(t, s.File().Size() < sizeBefore)
	assert.Equal(t, uint32(1), s.File().Compactions())
	c.Close()

	// With the pool gone the submit fails and the queued shard is
	// compacted inline instead of stranded.
	c.Enqueue(s)
	assert.Equal(t, uint32(2), s.File().Compactions())
}

func TestManager(t *testing.T) {
	m := NewManager(false)
	defer m.Close()
	schema := mockDelSchema(1)
	s, err := m.CreateShard(1, schema)
	require.Nil(t, err)
	_, err = m.CreateShard(1, schema)
	assert.Equal(t, ErrDuplicateShard, err)
	assert.Equal(t, s, m.GetShard(1))
	assert.Nil(t, m.GetShard(2))

	m.MarkResident(1, stats.TierCPU)
	assert.Equal(t, 1, m.ResidentCount(stats.TierCPU))
	m.ClearMemory(stats.TierCPU)
	assert.Equal(t, 0, m.ResidentCount(stats.TierCPU))
	assert.False(t, m.AccelPresent())
}

func TestVacuumDeletedRows(t *testing.T) {
	m := NewManager(false)
	defer m.Close()
	schema := mockDelSchema(1)
	td := catalog.MockStaloneTableEntry(1, schema)
	s, err := m.CreateShard(td.Shards()[0].GetID(), schema)
	require.Nil(t, err)
	require.Nil(t, s.AddPartition(mockPartition(1, schema, []int32{1, 2, 3, 4, 5})))
	require.Nil(t, s.GetPartition(1).RangeDelete(1, 3))

	require.Nil(t, m.VacuumDeletedRows(td))
	assert.Equal(t, uint32(2), s.GetPartition(1).PhysicalRows())
	assert.Equal(t, uint64(2), s.GetPartition(1).LiveRows())
}
