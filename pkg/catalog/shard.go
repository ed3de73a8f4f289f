package catalog

import (
	"fmt"
	"sync"

	"cae/pkg/common"
)

// ShardEntry is one physical sub-table of a logical table. Its epoch is the
// version token marking the currently visible data generation; it advances
// on every checkpoint and is explicitly restorable.
type ShardEntry struct {
	*sync.RWMutex
	ID    uint64
	table *TableEntry
	epoch uint64
}

func newShardEntry(table *TableEntry, id uint64) *ShardEntry {
	return &ShardEntry{
		RWMutex: new(sync.RWMutex),
		ID:      id,
		table:   table,
		epoch:   1,
	}
}

func (entry *ShardEntry) GetID() uint64 { return entry.ID }

func (entry *ShardEntry) GetTable() *TableEntry { return entry.table }

func (entry *ShardEntry) GetEpoch() uint64 {
	entry.RLock()
	defer entry.RUnlock()
	return entry.epoch
}

// SetEpoch rewinds or replays the version token. Only the vacuum rollback
// path may move it backwards.
func (entry *ShardEntry) SetEpoch(epoch uint64) {
	entry.Lock()
	entry.epoch = epoch
	entry.Unlock()
}

func (entry *ShardEntry) nextEpochLocked() uint64 {
	entry.epoch++
	return entry.epoch
}

func (entry *ShardEntry) NextEpoch() uint64 {
	entry.Lock()
	defer entry.Unlock()
	return entry.nextEpochLocked()
}

func (entry *ShardEntry) PPString(level common.PPLevel, depth int, prefix string) string {
	return fmt.Sprintf("%s%s%s", common.RepeatStr("\t", depth), prefix, entry.String())
}

func (entry *ShardEntry) String() string {
	entry.RLock()
	defer entry.RUnlock()
	return entry.StringLocked()
}

func (entry *ShardEntry) StringLocked() string {
	return fmt.Sprintf("SHARD[id=%d,epoch=%d]", entry.ID, entry.epoch)
}
