package optimize

import (
	"cae/pkg/catalog"
	"cae/pkg/data"
	"cae/pkg/exec"
	"cae/pkg/stats"

	"github.com/sirupsen/logrus"
)

// deletedRowTracker carries the per-partition live-row counts produced by
// probing the soft-delete marker. Later per-column recomputes consult it to
// infer null presence without rescanning the tombstones.
type deletedRowTracker struct {
	liveCounts map[uint64]uint64
	visited    []uint64
	total      uint64
}

func newDeletedRowTracker() *deletedRowTracker {
	return &deletedRowTracker{liveCounts: make(map[uint64]uint64)}
}

func (t *deletedRowTracker) liveRows(p *data.Partition) uint64 {
	live, ok := t.liveCounts[p.ID()]
	if !ok {
		// No marker column on this table; every physical row is live.
		return uint64(p.PhysicalRows())
	}
	return live
}

// collectLiveCounts probes COUNT over the marker column for every partition
// of the shard, without writing any stats.
func (pr *aggregateProbe) collectLiveCounts(ctx *exec.ExecCtx, shard *data.Shard,
	deletedCol *catalog.ColDef, parts map[uint64]bool) (*deletedRowTracker, error) {
	tracker := newDeletedRowTracker()
	unit := exec.NewAggUnit(deletedCol, false, exec.AggCount)
	visitor := func(p *data.Partition, row []interface{}, err error) error {
		if err != nil {
			logrus.Warnf("Probing deleted rows of partition %d: %v", p.ID(), err)
			return nil
		}
		tracker.visited = append(tracker.visited, p.ID())
		if row == nil {
			logrus.Infof("Skipping completely empty partition %d", p.ID())
			tracker.liveCounts[p.ID()] = 0
			return nil
		}
		live := uint64(row[0].(int64))
		tracker.liveCounts[p.ID()] = live
		tracker.total += live
		return nil
	}
	if err := pr.run(ctx, unit, shard, parts, visitor); err != nil {
		return nil, err
	}
	return tracker, nil
}

// markerStats synthesizes the marker column's chunk stats from the live and
// physical counts: (0,0) when nothing is deleted, (1,1) when everything is,
// (0,1) for a mix.
func markerStats(live, physical uint64) stats.ChunkStats {
	cs := stats.ChunkStats{Min: int64(0), Max: int64(0)}
	switch {
	case live == physical:
	case live == 0:
		cs.Min = int64(1)
		cs.Max = int64(1)
	default:
		cs.Max = int64(1)
	}
	return cs
}

// recomputeDeletedColumnStats rebuilds the marker column's stats and the
// shard's total live-row count, returning the tracker for the per-column
// passes that follow.
func (o *TableOptimizer) recomputeDeletedColumnStats(ctx *exec.ExecCtx, pr *aggregateProbe,
	shard *data.Shard, tier stats.Tier) (*deletedRowTracker, error) {
	schema := shard.GetSchema()
	if !schema.HasDeletedCol() {
		return newDeletedRowTracker(), nil
	}
	deletedCol := schema.DeletedCol()
	tracker, err := pr.collectLiveCounts(ctx, shard, deletedCol, nil)
	if err != nil {
		return nil, err
	}
	batch := make(map[uint64]stats.ChunkStats)
	layout := shard.GetLayout()
	for _, pid := range tracker.visited {
		physical := uint64(layout.PhysicalRows[pid])
		if physical == 0 {
			// Nothing to describe; the chunk keeps no stats entry.
			continue
		}
		batch[pid] = markerStats(tracker.liveCounts[pid], physical)
	}
	frag := shard.GetFragmenter()
	frag.ReplaceChunkStats(uint16(deletedCol.Idx), tracker.visited, batch, tier)
	frag.SetNumRows(tracker.total)
	return tracker, nil
}
