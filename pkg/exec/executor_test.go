package exec

import (
	"errors"
	"testing"

	"cae/pkg/catalog"
	"cae/pkg/data"
	"cae/pkg/stats"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/matrixorigin/matrixone/pkg/container/nulls"
	"github.com/matrixorigin/matrixone/pkg/container/types"
	"github.com/matrixorigin/matrixone/pkg/container/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int32Vec(vals []int32, nullRows ...uint64) *vector.Vector {
	vec := &vector.Vector{
		Typ: types.Type{Oid: types.T_int32, Size: 4},
		Col: vals,
	}
	if len(nullRows) > 0 {
		vec.Nsp = &nulls.Nulls{Np: roaring64.BitmapOf(nullRows...)}
	}
	return vec
}

func strVec(vals []string) *vector.Vector {
	col := &types.Bytes{}
	for _, v := range vals {
		col.Offsets = append(col.Offsets, uint32(len(col.Data)))
		col.Data = append(col.Data, v...)
		col.Lengths = append(col.Lengths, uint32(len(v)))
	}
	return &vector.Vector{
		Typ: types.Type{Oid: types.T_varchar, Size: 24},
		Col: col,
	}
}

type probeEnv struct {
	mgr   *data.Manager
	shard *data.Shard
	ex    *Executor
}

func newProbeEnv(t *testing.T, schema *catalog.Schema) *probeEnv {
	mgr := data.NewManager(false)
	t.Cleanup(mgr.Close)
	shard, err := mgr.CreateShard(1, schema)
	require.Nil(t, err)
	return &probeEnv{mgr: mgr, shard: shard, ex: NewExecutor(mgr)}
}

func (env *probeEnv) addInt32Partition(t *testing.T, id uint64, vals []int32, nullRows ...uint64) *data.Partition {
	schema := env.shard.GetSchema()
	vecs := make([]*vector.Vector, len(schema.ColDefs))
	vecs[0] = int32Vec(vals, nullRows...)
	p := data.NewPartition(id, schema, vecs)
	require.Nil(t, env.shard.AddPartition(p))
	return p
}

func (env *probeEnv) probe(t *testing.T, ctx *ExecCtx, unit *AggUnit, parts map[uint64]bool,
	visitor PartitionVisitor) {
	err := env.ex.ExecutePerPartition(ctx, unit, env.shard,
		ConservativeCompilationOptions(), MaintenanceExecutionOptions(), visitor, parts)
	require.Nil(t, err)
}

func TestProbeMinMaxCount(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	p1 := env.addInt32Partition(t, 1, []int32{5, 1, 9, 3}, 0)
	require.Nil(t, p1.RangeDelete(2, 2))
	env.addInt32Partition(t, 2, []int32{10, 20})

	unit := NewAggUnit(schema.ColDefs[0], false, AggCount, AggMin, AggMax)
	ctx := env.ex.Acquire()
	defer ctx.Release()

	var visited []uint64
	rows := make(map[uint64][]interface{})
	env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
		require.Nil(t, err)
		visited = append(visited, p.ID())
		rows[p.ID()] = row
		return nil
	})

	assert.Equal(t, []uint64{1, 2}, visited)
	// Row 0 is null and row 2 is tombstoned; values 1 and 3 remain.
	assert.Equal(t, []interface{}{int64(2), int64(1), int64(3)}, rows[1])
	assert.Equal(t, []interface{}{int64(2), int64(10), int64(20)}, rows[2])
	assert.Equal(t, 1, env.mgr.ResidentCount(stats.TierCPU))
}

func TestProbeEmptyPartition(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	require.Nil(t, env.shard.AddPartition(data.NewEmptyPartition(1, schema)))

	unit := NewAggUnit(schema.ColDefs[0], false, AggCount, AggMin, AggMax)
	ctx := env.ex.Acquire()
	defer ctx.Release()

	visits := 0
	env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
		require.Nil(t, err)
		assert.Nil(t, row)
		visits++
		return nil
	})
	assert.Equal(t, 1, visits)
}

func TestProbeMarkerColumn(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	p := env.addInt32Partition(t, 1, []int32{1, 2, 3, 4, 5})
	require.Nil(t, p.RangeDelete(0, 1))

	ctx := env.ex.Acquire()
	defer ctx.Release()
	unit := NewAggUnit(schema.DeletedCol(), false, AggCount)
	env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
		require.Nil(t, err)
		assert.Equal(t, []interface{}{int64(3)}, row)
		return nil
	})

	// MIN/MAX over the marker have no backing vector to fold.
	unit = NewAggUnit(schema.DeletedCol(), false, AggMin)
	env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
		assert.Equal(t, ErrUnsupportedProbe, err)
		assert.Nil(t, row)
		return nil
	})
}

func TestProbeDictKeys(t *testing.T) {
	schema := catalog.NewEmptySchema("dict")
	schema.AppendDictCol("name", types.Type{Oid: types.T_varchar, Size: 24})
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	vecs := []*vector.Vector{strVec([]string{"b", "a", "c", "a"}), nil}
	require.Nil(t, env.shard.AddPartition(data.NewPartition(1, schema, vecs)))

	ctx := env.ex.Acquire()
	defer ctx.Release()
	unit := NewAggUnit(schema.ColDefs[0], true, AggCount, AggMin, AggMax)
	env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
		require.Nil(t, err)
		// Keys are handed out in first-seen order: b=0, a=1, c=2.
		assert.Equal(t, []interface{}{int64(4), int64(0), int64(2)}, row)
		return nil
	})
	assert.Equal(t, 3, env.shard.Dict().Len())
}

func TestVisitorErrorAborts(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	env.addInt32Partition(t, 1, []int32{1})
	env.addInt32Partition(t, 2, []int32{2})

	ctx := env.ex.Acquire()
	defer ctx.Release()
	unit := NewAggUnit(schema.ColDefs[0], false, AggCount)
	boom := errors.New("boom")
	visits := 0
	err := env.ex.ExecutePerPartition(ctx, unit, env.shard,
		ConservativeCompilationOptions(), MaintenanceExecutionOptions(),
		func(p *data.Partition, row []interface{}, verr error) error {
			visits++
			return boom
		}, nil)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, visits)
}

func TestMetaInfoCache(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	env.addInt32Partition(t, 1, []int32{1})

	ctx := env.ex.Acquire()
	defer ctx.Release()
	unit := NewAggUnit(schema.ColDefs[0], false, AggCount)
	count := func() (visits int) {
		env.probe(t, ctx, unit, nil, func(p *data.Partition, row []interface{}, err error) error {
			visits++
			return nil
		})
		return
	}
	assert.Equal(t, 1, count())

	// The cached layout hides partitions added after the first probe until
	// the cache is dropped.
	env.addInt32Partition(t, 2, []int32{2})
	assert.Equal(t, 1, count())
	env.ex.ClearMetaInfoCache()
	assert.Equal(t, 2, count())
}

func TestPartitionFilter(t *testing.T) {
	schema := catalog.MockSchema(1)
	schema.AppendDeletedCol()
	env := newProbeEnv(t, schema)
	env.addInt32Partition(t, 1, []int32{1})
	env.addInt32Partition(t, 2, []int32{2})
	env.addInt32Partition(t, 3, []int32{3})

	ctx := env.ex.Attach()
	defer ctx.Release()
	unit := NewAggUnit(schema.ColDefs[0], false, AggCount)
	var visited []uint64
	env.probe(t, ctx, unit, map[uint64]bool{1: true, 3: true},
		func(p *data.Partition, row []interface{}, err error) error {
			visited = append(visited, p.ID())
			return nil
		})
	assert.Equal(t, []uint64{1, 3}, visited)
}

func TestArena(t *testing.T) {
	a := NewArena(64)
	require.Nil(t, a.Allocate(48))
	assert.Equal(t, uint64(48), a.Used())
	assert.Equal(t, ErrArenaExhausted, a.Allocate(32))
	a.Reset()
	assert.Equal(t, uint64(0), a.Used())
	require.Nil(t, a.Allocate(64))
}
