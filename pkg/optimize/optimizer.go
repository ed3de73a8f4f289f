package optimize

import (
	"cae/pkg/catalog"
	"cae/pkg/data"
	"cae/pkg/exec"
	"cae/pkg/stats"

	"github.com/sirupsen/logrus"
)

// TableOptimizer recomputes the chunk-level metadata of one table: per
// (column, partition) min/max/null stats plus the per-shard live-row totals.
type TableOptimizer struct {
	td       *catalog.TableEntry
	cat      *catalog.Catalog
	executor *exec.Executor
	dataMgr  *data.Manager
}

func NewTableOptimizer(td *catalog.TableEntry, cat *catalog.Catalog,
	executor *exec.Executor, dataMgr *data.Manager) *TableOptimizer {
	if td == nil {
		panic("not expected")
	}
	return &TableOptimizer{
		td:       td,
		cat:      cat,
		executor: executor,
		dataMgr:  dataMgr,
	}
}

// RecomputeMetadata rebuilds the stats of every column on every shard of
// the table. It holds the table-data write lock and the executor for the
// whole pass: the marker column is probed first so the live counts can seed
// null inference, then every visible column, then the shard is durably
// checkpointed and its cached layout dropped. Memory tiers are cleared at
// the end so stale buffers reload against the fresh metadata.
func (o *TableOptimizer) RecomputeMetadata() error {
	ctx := o.executor.Acquire()
	defer ctx.Release()
	dataLock := o.td.DataLock()
	dataLock.Lock()
	defer dataLock.Unlock()

	pr := newAggregateProbe(o.executor)
	for _, se := range o.td.Shards() {
		shard := o.dataMgr.GetShard(se.GetID())
		if shard == nil {
			panic("not expected")
		}
		ctx.ResetArena()
		tracker, err := o.recomputeDeletedColumnStats(ctx, pr, shard, stats.TierDurable)
		if err != nil {
			return err
		}
		if !shard.GetSchema().HasDeletedCol() {
			shard.GetFragmenter().SetNumRows(shard.GetLayout().TotalRows)
		}
		for _, cd := range shard.GetSchema().VisibleCols() {
			if err = o.recomputeColumnStats(ctx, pr, shard, cd, tracker, nil, stats.TierDurable); err != nil {
				return err
			}
		}
		if err = o.cat.CheckpointShard(o.td, se); err != nil {
			return err
		}
		o.executor.ClearMetaInfoCache()
	}

	o.dataMgr.ClearMemory(stats.TierCPU)
	if o.dataMgr.AccelPresent() {
		o.dataMgr.ClearMemory(stats.TierAccel)
	}
	logrus.Infof("Recomputed metadata for table %d", o.td.GetID())
	return nil
}

// RecomputeForColumns rebuilds stats for the candidate columns only,
// restricted to the given partitions (nil meaning all) and written to a
// single memory tier. The marker column's stats and the shard's live-row
// total are refreshed at that tier first so null inference sees current
// counts. No locks are taken; the caller serializes against concurrent
// recomputes.
func (o *TableOptimizer) RecomputeForColumns(candidates map[*catalog.ColDef]map[uint64]bool, tier stats.Tier) error {
	if len(candidates) == 0 {
		return nil
	}
	pr := newAggregateProbe(o.executor)
	for _, se := range o.td.Shards() {
		shard := o.dataMgr.GetShard(se.GetID())
		if shard == nil {
			panic("not expected")
		}
		ctx := o.executor.Attach()
		tracker, err := o.recomputeDeletedColumnStats(ctx, pr, shard, tier)
		if err != nil {
			ctx.Release()
			return err
		}
		for cd, parts := range candidates {
			if err := o.recomputeColumnStats(ctx, pr, shard, cd, tracker, parts, tier); err != nil {
				ctx.Release()
				return err
			}
		}
		ctx.Release()
	}
	return nil
}
