package stats

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

type chunkItem struct {
	pid   uint64
	stats ChunkStats
	// absent marks a tier overlay entry that shadows the durable copy with
	// "no stats" rather than falling through to it.
	absent bool
}

func (item *chunkItem) Less(than btree.Item) bool {
	return item.pid < than.(*chunkItem).pid
}

// Fragmenter is the per-shard statistics store: ChunkStats per
// (column, partition) plus the shard's total live-row count. All writes for
// one column land as a single batch under the lock, so readers never
// observe a partial replace.
type Fragmenter struct {
	sync.RWMutex
	shardID  uint64
	durable  map[uint16]*btree.BTree
	overlays map[Tier]map[uint16]*btree.BTree
	numRows  uint64
}

func NewFragmenter(shardID uint64) *Fragmenter {
	return &Fragmenter{
		shardID:  shardID,
		durable:  make(map[uint16]*btree.BTree),
		overlays: make(map[Tier]map[uint16]*btree.BTree),
	}
}

func (f *Fragmenter) treeLocked(tier Tier, colIdx uint16, create bool) *btree.BTree {
	var byCol map[uint16]*btree.BTree
	if tier == TierDurable {
		byCol = f.durable
	} else {
		byCol = f.overlays[tier]
		if byCol == nil {
			if !create {
				return nil
			}
			byCol = make(map[uint16]*btree.BTree)
			f.overlays[tier] = byCol
		}
	}
	tree := byCol[colIdx]
	if tree == nil && create {
		tree = btree.New(8)
		byCol[colIdx] = tree
	}
	return tree
}

// ReplaceChunkStats applies one recompute batch for a column: every
// partition in scope gets its entry replaced wholesale with the value from
// batch, or removed when batch carries none. Partitions outside scope are
// untouched.
func (f *Fragmenter) ReplaceChunkStats(colIdx uint16, scope []uint64, batch map[uint64]ChunkStats, tier Tier) {
	f.Lock()
	defer f.Unlock()
	tree := f.treeLocked(tier, colIdx, true)
	for _, pid := range scope {
		cs, ok := batch[pid]
		if tier == TierDurable {
			if ok {
				tree.ReplaceOrInsert(&chunkItem{pid: pid, stats: cs})
			} else {
				tree.Delete(&chunkItem{pid: pid})
			}
			// A durable replace supersedes any tier overlay for the chunk.
			for t := range f.overlays {
				if overlay := f.treeLocked(t, colIdx, false); overlay != nil {
					overlay.Delete(&chunkItem{pid: pid})
				}
			}
			continue
		}
		tree.ReplaceOrInsert(&chunkItem{pid: pid, stats: cs, absent: !ok})
	}
}

// GetChunkStats reads through the given tier: an overlay entry wins over
// the durable copy, including overlay entries recording absence.
func (f *Fragmenter) GetChunkStats(colIdx uint16, pid uint64, tier Tier) (cs ChunkStats, ok bool) {
	f.RLock()
	defer f.RUnlock()
	if tier != TierDurable {
		if overlay := f.treeLocked(tier, colIdx, false); overlay != nil {
			if item := overlay.Get(&chunkItem{pid: pid}); item != nil {
				found := item.(*chunkItem)
				if found.absent {
					return
				}
				return found.stats, true
			}
		}
	}
	tree := f.treeLocked(TierDurable, colIdx, false)
	if tree == nil {
		return
	}
	item := tree.Get(&chunkItem{pid: pid})
	if item == nil {
		return
	}
	return item.(*chunkItem).stats, true
}

// CountChunkStats reports how many partitions carry stats for the column at
// the durable tier.
func (f *Fragmenter) CountChunkStats(colIdx uint16) int {
	f.RLock()
	defer f.RUnlock()
	tree := f.treeLocked(TierDurable, colIdx, false)
	if tree == nil {
		return 0
	}
	return tree.Len()
}

func (f *Fragmenter) SetNumRows(n uint64) {
	f.Lock()
	f.numRows = n
	f.Unlock()
}

func (f *Fragmenter) NumRows() uint64 {
	f.RLock()
	defer f.RUnlock()
	return f.numRows
}

func (f *Fragmenter) String() string {
	f.RLock()
	defer f.RUnlock()
	s := fmt.Sprintf("FRAG[shard=%d,rows=%d,cols=%d]", f.shardID, f.numRows, len(f.durable))
	for colIdx, tree := range f.durable {
		s = fmt.Sprintf("%s\n\tcol %d: %d chunks", s, colIdx, tree.Len())
	}
	return s
}
