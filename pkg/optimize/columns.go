package optimize

import (
	"cae/pkg/catalog"
	"cae/pkg/data"
	"cae/pkg/exec"
	"cae/pkg/stats"

	"github.com/matrixorigin/matrixone/pkg/container/types"
	"github.com/sirupsen/logrus"
)

// statsEligible reports whether the column's stats can be recomputed by an
// aggregate probe. Variable-length text without a dictionary has no ordered
// integer domain to fold over, and decimals carry no vector representation
// the fold could compare.
func statsEligible(cd *catalog.ColDef) bool {
	if cd.IsString() && !cd.Dict {
		return false
	}
	if cd.Type.Oid == types.T_decimal {
		return false
	}
	return true
}

// statsFromRow converts a probe's MIN/MAX values into chunk stats. Dict
// columns arrive here already projected to their integer keys.
func statsFromRow(cd *catalog.ColDef, minVal, maxVal interface{}) (cs stats.ChunkStats, ok bool) {
	switch minVal.(type) {
	case int64, uint64, float32, float64:
	default:
		logrus.Warnf("Unable to process new metadata values for column %s", cd.Name)
		return
	}
	return stats.ChunkStats{Min: minVal, Max: maxVal}, true
}

// recomputeColumnStats rebuilds one column's chunk stats across the shard's
// partitions (restricted to parts when non-nil) and installs them at the
// given tier. Null presence is inferred by comparing the probe's non-null
// count against the tracker's live count; a chunk with no surviving values
// keeps no stats entry at all.
func (o *TableOptimizer) recomputeColumnStats(ctx *exec.ExecCtx, pr *aggregateProbe,
	shard *data.Shard, cd *catalog.ColDef, tracker *deletedRowTracker,
	parts map[uint64]bool, tier stats.Tier) error {
	if !statsEligible(cd) {
		logrus.Infof("Skipping stats recomputation for unsupported column %s", cd.Name)
		return nil
	}
	unit := exec.NewAggUnit(cd, cd.Dict, exec.AggCount, exec.AggMin, exec.AggMax)
	scope := make([]uint64, 0, 8)
	batch := make(map[uint64]stats.ChunkStats)
	visitor := func(p *data.Partition, row []interface{}, err error) error {
		if err != nil {
			// Leave the chunk's existing stats untouched.
			logrus.Warnf("Probing column %s of partition %d: %v", cd.Name, p.ID(), err)
			return nil
		}
		scope = append(scope, p.ID())
		if row == nil {
			logrus.Infof("Skipping completely empty partition %d", p.ID())
			return nil
		}
		if len(row) != 3 {
			panic("not expected")
		}
		cnt := uint64(row[0].(int64))
		if cnt == 0 {
			// Every live value is null; absence of stats means unknown.
			return nil
		}
		cs, ok := statsFromRow(cd, row[1], row[2])
		if !ok {
			return nil
		}
		cs.HasNulls = cnt != tracker.liveRows(p)
		batch[p.ID()] = cs
		return nil
	}
	if err := pr.run(ctx, unit, shard, parts, visitor); err != nil {
		return err
	}
	shard.GetFragmenter().ReplaceChunkStats(uint16(cd.Idx), scope, batch, tier)
	return nil
}
