package data

import (
	"fmt"
	"sync"

	"cae/pkg/catalog"
	"cae/pkg/stats"

	"github.com/google/btree"
)

type partitionItem struct {
	p *Partition
}

func (item *partitionItem) Less(than btree.Item) bool {
	return item.p.id < than.(*partitionItem).p.id
}

// Layout is a shard's cached partition layout: ids in ascending order plus
// a physical-row snapshot. It is derived metadata; dropping it forces a
// rebuild on next access.
type Layout struct {
	Partitions   []uint64
	PhysicalRows map[uint64]uint32
	TotalRows    uint64
}

type Shard struct {
	sync.RWMutex
	id     uint64
	schema *catalog.Schema
	tree   *btree.BTree
	dict   *Dictionary
	file   *ShardFile
	frag   *stats.Fragmenter
	layout *Layout
}

func NewShard(id uint64, schema *catalog.Schema) *Shard {
	return &Shard{
		id:     id,
		schema: schema,
		tree:   btree.New(8),
		dict:   NewDictionary(),
		file:   NewShardFile(fmt.Sprintf("shard-%d", id)),
		frag:   stats.NewFragmenter(id),
	}
}

func (s *Shard) ID() uint64                  { return s.id }
func (s *Shard) GetSchema() *catalog.Schema  { return s.schema }
func (s *Shard) Dict() *Dictionary           { return s.dict }
func (s *Shard) File() *ShardFile            { return s.file }
func (s *Shard) GetFragmenter() *stats.Fragmenter {
	if s.frag == nil {
		panic("not expected")
	}
	return s.frag
}

func (s *Shard) AddPartition(p *Partition) error {
	s.Lock()
	defer s.Unlock()
	if s.tree.Get(&partitionItem{p: p}) != nil {
		return ErrDuplicatePartition
	}
	s.tree.ReplaceOrInsert(&partitionItem{p: p})
	s.layout = nil
	s.file.SetSize(s.file.Size() + uint64(p.PhysicalRows())*uint64(s.rowWidth()))
	return nil
}

func (s *Shard) GetPartition(id uint64) *Partition {
	s.RLock()
	defer s.RUnlock()
	item := s.tree.Get(&partitionItem{p: &Partition{id: id}})
	if item == nil {
		return nil
	}
	return item.(*partitionItem).p
}

func (s *Shard) Partitions() []*Partition {
	s.RLock()
	defer s.RUnlock()
	parts := make([]*Partition, 0, s.tree.Len())
	s.tree.Ascend(func(item btree.Item) bool {
		parts = append(parts, item.(*partitionItem).p)
		return true
	})
	return parts
}

// GetLayout returns the cached partition layout, building it when absent.
func (s *Shard) GetLayout() *Layout {
	s.RLock()
	layout := s.layout
	s.RUnlock()
	if layout != nil {
		return layout
	}
	s.Lock()
	defer s.Unlock()
	if s.layout != nil {
		return s.layout
	}
	layout = &Layout{
		Partitions:   make([]uint64, 0, s.tree.Len()),
		PhysicalRows: make(map[uint64]uint32),
	}
	s.tree.Ascend(func(item btree.Item) bool {
		p := item.(*partitionItem).p
		layout.Partitions = append(layout.Partitions, p.id)
		rows := p.PhysicalRows()
		layout.PhysicalRows[p.id] = rows
		layout.TotalRows += uint64(rows)
		return true
	})
	s.layout = layout
	return layout
}

// DropLayout discards the cached partition layout, forcing a reload on the
// next access. Called after vacuum rewrites the physical row counts.
func (s *Shard) DropLayout() {
	s.Lock()
	s.layout = nil
	s.Unlock()
}

func (s *Shard) rowWidth() uint32 {
	width := uint32(0)
	for _, def := range s.schema.ColDefs {
		if def.Hidden {
			continue
		}
		if def.IsString() {
			width += 8
			continue
		}
		width += uint32(def.Type.Size)
	}
	if width == 0 {
		width = 1
	}
	return width
}

// CompactDataFiles rewrites the shard file down to its live payload.
func (s *Shard) CompactDataFiles() {
	live := uint64(0)
	for _, p := range s.Partitions() {
		live += p.LiveRows()
	}
	s.file.Compact(live * uint64(s.rowWidth()))
}

func (s *Shard) String() string {
	s.RLock()
	defer s.RUnlock()
	return fmt.Sprintf("DATASHARD[id=%d,partitions=%d]", s.id, s.tree.Len())
}
