package optimize

import (
	"cae/pkg/catalog"
	"cae/pkg/data"
	"cae/pkg/exec"

	"github.com/sirupsen/logrus"
)

// VacuumCoordinator drives the physical removal of soft-deleted rows. The
// rewrite itself is irreversible, so the table's version tokens are
// snapshotted up front and restored if the rewrite or its checkpoint fails.
type VacuumCoordinator struct {
	td       *catalog.TableEntry
	cat      *catalog.Catalog
	executor *exec.Executor
	dataMgr  *data.Manager
}

func NewVacuumCoordinator(td *catalog.TableEntry, cat *catalog.Catalog,
	executor *exec.Executor, dataMgr *data.Manager) *VacuumCoordinator {
	if td == nil {
		panic("not expected")
	}
	return &VacuumCoordinator{
		td:       td,
		cat:      cat,
		executor: executor,
		dataMgr:  dataMgr,
	}
}

// Vacuum purges tombstoned rows from every shard and checkpoints the new
// generation. On failure the snapshotted version tokens are restored (the
// restore logs and swallows its own errors) and the original error is
// returned. On success the cached layouts are dropped and file compaction
// is queued in the background.
func (v *VacuumCoordinator) Vacuum() error {
	records := v.cat.GetTableEpochs(v.td)
	err := v.dataMgr.VacuumDeletedRows(v.td)
	if err == nil {
		err = v.cat.Checkpoint(v.td)
	}
	if err != nil {
		logrus.Errorf("Vacuuming table %d failed, restoring version tokens: %v", v.td.GetID(), err)
		v.cat.SetTableEpochs(v.td, records)
		return err
	}

	for _, se := range v.td.Shards() {
		shard := v.dataMgr.GetShard(se.GetID())
		if shard == nil {
			panic("not expected")
		}
		shard.DropLayout()
		v.dataMgr.Compactor().Enqueue(shard)
	}
	if v.executor != nil {
		v.executor.ClearMetaInfoCache()
	}
	return nil
}
