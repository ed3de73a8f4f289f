package catalog

import (
	"fmt"
	"sync"

	"cae/pkg/common"
)

type TableEntry struct {
	*sync.RWMutex
	ID      uint64
	catalog *Catalog
	schema  *Schema
	shards  []*ShardEntry
	epoch   uint64

	// dataLock is the table-data write lock. A full metadata recompute holds
	// it exclusively for its whole duration; readers and writers of the
	// table's data share it otherwise.
	dataLock sync.RWMutex
}

func NewTableEntry(c *Catalog, id uint64, schema *Schema) *TableEntry {
	e := &TableEntry{
		RWMutex: new(sync.RWMutex),
		ID:      id,
		catalog: c,
		schema:  schema,
		epoch:   1,
	}
	shardCnt := int(schema.ShardCnt)
	if shardCnt == 0 {
		shardCnt = 1
	}
	for i := 0; i < shardCnt; i++ {
		var shardID uint64
		if c != nil {
			shardID = c.nextShard()
		} else {
			shardID = uint64(i + 1)
		}
		e.shards = append(e.shards, newShardEntry(e, shardID))
	}
	return e
}

// MockStaloneTableEntry builds a table detached from any catalog.
func MockStaloneTableEntry(id uint64, schema *Schema) *TableEntry {
	return NewTableEntry(nil, id, schema)
}

func (entry *TableEntry) GetID() uint64      { return entry.ID }
func (entry *TableEntry) GetSchema() *Schema { return entry.schema }

// Shards resolves the physical shards: one for an unsharded table, N for a
// sharded one.
func (entry *TableEntry) Shards() []*ShardEntry {
	entry.RLock()
	defer entry.RUnlock()
	shards := make([]*ShardEntry, len(entry.shards))
	copy(shards, entry.shards)
	return shards
}

func (entry *TableEntry) GetShard(id uint64) *ShardEntry {
	entry.RLock()
	defer entry.RUnlock()
	for _, shard := range entry.shards {
		if shard.ID == id {
			return shard
		}
	}
	return nil
}

func (entry *TableEntry) DataLock() *sync.RWMutex { return &entry.dataLock }

func (entry *TableEntry) GetEpoch() uint64 {
	entry.RLock()
	defer entry.RUnlock()
	return entry.epoch
}

func (entry *TableEntry) SetEpoch(epoch uint64) {
	entry.Lock()
	entry.epoch = epoch
	entry.Unlock()
}

func (entry *TableEntry) NextEpoch() uint64 {
	entry.Lock()
	defer entry.Unlock()
	entry.epoch++
	return entry.epoch
}

func (entry *TableEntry) PPString(level common.PPLevel, depth int, prefix string) string {
	s := fmt.Sprintf("%s%s%s", common.RepeatStr("\t", depth), prefix, entry.String())
	if level == common.PPL0 {
		return s
	}
	for _, shard := range entry.Shards() {
		s = fmt.Sprintf("%s\n%s", s, shard.PPString(level, depth+1, prefix))
	}
	return s
}

func (entry *TableEntry) String() string {
	entry.RLock()
	defer entry.RUnlock()
	return fmt.Sprintf("TABLE[id=%d,name=%s,epoch=%d,shards=%d]", entry.ID, entry.schema.Name, entry.epoch, len(entry.shards))
}
