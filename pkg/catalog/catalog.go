package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	com "cae/pkg/common"

	"github.com/jiangxinmeng1/logstore/pkg/entry"
	"github.com/jiangxinmeng1/logstore/pkg/store"
	"github.com/matrixorigin/matrixone/pkg/vm/engine/aoe/storage/common"
	"github.com/sirupsen/logrus"
)

// EpochRecord snapshots one version token. ShardID zero denotes the logical
// table itself.
type EpochRecord struct {
	ShardID uint64
	Epoch   uint64
}

type Catalog struct {
	*sync.RWMutex
	driver    LogDriver
	entries   map[uint64]*TableEntry
	nameIndex map[string]uint64

	tableAlloc *common.IdAlloctor
	shardAlloc *common.IdAlloctor
}

func NewCatalog(driver LogDriver) *Catalog {
	return &Catalog{
		RWMutex:    new(sync.RWMutex),
		driver:     driver,
		entries:    make(map[uint64]*TableEntry),
		nameIndex:  make(map[string]uint64),
		tableAlloc: common.NewIdAlloctor(1),
		shardAlloc: common.NewIdAlloctor(1),
	}
}

func MockCatalog(dir, name string, cfg *store.StoreCfg) *Catalog {
	driver := NewLogDriver(dir, name, cfg)
	return NewCatalog(driver)
}

func (c *Catalog) Close() error {
	return c.driver.Close()
}

func (c *Catalog) nextShard() uint64 { return c.shardAlloc.Alloc() }

func (c *Catalog) CreateTableEntry(schema *Schema) (*TableEntry, error) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.nameIndex[schema.Name]; ok {
		return nil, ErrDuplicate
	}
	e := NewTableEntry(c, c.tableAlloc.Alloc(), schema)
	c.entries[e.ID] = e
	c.nameIndex[schema.Name] = e.ID
	return e, nil
}

func (c *Catalog) GetTableEntry(id uint64) (*TableEntry, error) {
	c.RLock()
	defer c.RUnlock()
	e := c.entries[id]
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (c *Catalog) GetTableEntryByName(name string) (*TableEntry, error) {
	c.RLock()
	id, ok := c.nameIndex[name]
	c.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return c.GetTableEntry(id)
}

// GetTableEpochs snapshots the version token of the table and of every
// physical shard, in that order.
func (c *Catalog) GetTableEpochs(td *TableEntry) []EpochRecord {
	records := make([]EpochRecord, 0, 4)
	records = append(records, EpochRecord{ShardID: 0, Epoch: td.GetEpoch()})
	for _, shard := range td.Shards() {
		records = append(records, EpochRecord{ShardID: shard.ID, Epoch: shard.GetEpoch()})
	}
	return records
}

// SetTableEpochs restores previously snapshotted version tokens. Failures
// are logged and swallowed so a caller compensating for another error keeps
// surfacing the original one.
func (c *Catalog) SetTableEpochs(td *TableEntry, records []EpochRecord) {
	for _, record := range records {
		if record.ShardID == 0 {
			td.SetEpoch(record.Epoch)
			continue
		}
		shard := td.GetShard(record.ShardID)
		if shard == nil {
			logrus.Errorf("Restoring epoch %d: shard %d not found in table %d", record.Epoch, record.ShardID, td.ID)
			continue
		}
		shard.SetEpoch(record.Epoch)
	}
}

// CheckpointShard advances the shard's (and the table's) version token and
// durably logs the new generation. The epoch is advanced before the append
// so a failed append leaves a token the caller must explicitly restore.
func (c *Catalog) CheckpointShard(td *TableEntry, shard *ShardEntry) error {
	tableEpoch := td.NextEpoch()
	epoch := shard.NextEpoch()
	e := entry.GetBase()
	e.SetType(ETCheckpoint)
	var w bytes.Buffer
	if err := binary.Write(&w, binary.BigEndian, td.ID); err != nil {
		return err
	}
	if err := binary.Write(&w, binary.BigEndian, shard.ID); err != nil {
		return err
	}
	if err := binary.Write(&w, binary.BigEndian, epoch); err != nil {
		return err
	}
	if err := e.Unmarshal(w.Bytes()); err != nil {
		return err
	}
	if _, err := c.driver.AppendEntry(e); err != nil {
		return err
	}
	e.WaitDone()
	e.Free()
	logrus.Infof("Checkpointed table %d shard %d at epoch %d/%d", td.ID, shard.ID, tableEpoch, epoch)
	return nil
}

// Checkpoint checkpoints every shard of the table.
func (c *Catalog) Checkpoint(td *TableEntry) error {
	for _, shard := range td.Shards() {
		if err := c.CheckpointShard(td, shard); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) SimplePPString(level com.PPLevel) string {
	c.RLock()
	defer c.RUnlock()
	s := fmt.Sprintf("CATALOG[tables=%d]", len(c.entries))
	for _, e := range c.entries {
		s = fmt.Sprintf("%s\n%s", s, e.PPString(level, 1, ""))
	}
	return s
}
