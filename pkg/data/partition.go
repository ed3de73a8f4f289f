package data

import (
	"fmt"
	"sync"

	"cae/pkg/catalog"
	com "cae/pkg/common"

	"github.com/RoaringBitmap/roaring"
	"github.com/matrixorigin/matrixone/pkg/container/vector"
)

// Partition is one horizontal slice of a shard: one column vector per
// schema column plus a tombstone bitmap for soft-deleted rows. The vector
// at the soft-delete marker index is never materialized; the tombstones are
// its physical representation.
type Partition struct {
	*sync.RWMutex
	id         uint64
	schema     *catalog.Schema
	vecs       []*vector.Vector
	tombstones *roaring.Bitmap
	physical   uint32
}

func NewPartition(id uint64, schema *catalog.Schema, vecs []*vector.Vector) *Partition {
	if len(vecs) != len(schema.ColDefs) {
		panic("not expected")
	}
	physical := uint32(0)
	for i, vec := range vecs {
		if vec == nil {
			if i != schema.PhyDelIdx {
				panic("not expected")
			}
			continue
		}
		rows := uint32(vector.Length(vec))
		if physical != 0 && rows != physical {
			panic("not expected")
		}
		physical = rows
	}
	return &Partition{
		RWMutex:    new(sync.RWMutex),
		id:         id,
		schema:     schema,
		vecs:       vecs,
		tombstones: roaring.NewBitmap(),
		physical:   physical,
	}
}

func NewEmptyPartition(id uint64, schema *catalog.Schema) *Partition {
	vecs := make([]*vector.Vector, len(schema.ColDefs))
	for i, def := range schema.ColDefs {
		if i == schema.PhyDelIdx {
			continue
		}
		vecs[i] = vector.New(def.Type)
	}
	return NewPartition(id, schema, vecs)
}

func (p *Partition) ID() uint64 { return p.id }

func (p *Partition) GetSchema() *catalog.Schema { return p.schema }

func (p *Partition) PhysicalRows() uint32 {
	p.RLock()
	defer p.RUnlock()
	return p.physical
}

// PhysicalRowsLocked is PhysicalRows for callers already holding the lock.
func (p *Partition) PhysicalRowsLocked() uint32 { return p.physical }

func (p *Partition) LiveRows() uint64 {
	p.RLock()
	defer p.RUnlock()
	return p.LiveRowsLocked()
}

// LiveRowsLocked is LiveRows for callers already holding the lock.
func (p *Partition) LiveRowsLocked() uint64 {
	return uint64(p.physical) - p.tombstones.GetCardinality()
}

// RangeDelete tombstones rows [start, end]. The rows stay physically
// present until the next vacuum.
func (p *Partition) RangeDelete(start, end uint32) error {
	p.Lock()
	defer p.Unlock()
	if end >= p.physical {
		return ErrOutOfRange
	}
	p.tombstones.AddRange(uint64(start), uint64(end)+1)
	return nil
}

func (p *Partition) IsDeleted(row uint32) bool {
	p.RLock()
	defer p.RUnlock()
	return p.tombstones.Contains(row)
}

// VectorLocked returns the column vector. Callers hold at least the read
// lock for the duration of any scan.
func (p *Partition) VectorLocked(colIdx int) *vector.Vector {
	return p.vecs[colIdx]
}

// TombstonesLocked returns the tombstone bitmap. Callers hold at least the
// read lock.
func (p *Partition) TombstonesLocked() *roaring.Bitmap {
	return p.tombstones
}

// PurgeDeletes physically removes every tombstoned row, rewriting all
// column vectors in place. Irreversible at this layer; callers needing an
// undo anchor snapshot the version token first.
func (p *Partition) PurgeDeletes() (purged uint64, err error) {
	p.Lock()
	defer p.Unlock()
	purged = p.tombstones.GetCardinality()
	if purged == 0 {
		return
	}
	for i, vec := range p.vecs {
		if vec == nil {
			continue
		}
		compacted, cerr := compactVector(vec, p.tombstones, p.physical)
		if cerr != nil {
			err = cerr
			return
		}
		p.vecs[i] = compacted
	}
	p.physical -= uint32(purged)
	p.tombstones = roaring.NewBitmap()
	return
}

func (p *Partition) PPString(level com.PPLevel, depth int, prefix string) string {
	return fmt.Sprintf("%s%s%s", com.RepeatStr("\t", depth), prefix, p.String())
}

func (p *Partition) String() string {
	p.RLock()
	defer p.RUnlock()
	return fmt.Sprintf("PARTITION[id=%d,phy=%d,live=%d]", p.id, p.physical, p.LiveRowsLocked())
}
