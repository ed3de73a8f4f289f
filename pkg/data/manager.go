package data

import (
	"sync"

	"cae/pkg/catalog"
	"cae/pkg/stats"

	"github.com/sirupsen/logrus"
)

// Manager owns the data shards and the process-wide memory tiers. The tier
// residency sets model which shards have chunks cached at each level; a
// recompute pass clears them so stale buffers are reloaded with the fresh
// metadata.
type Manager struct {
	sync.RWMutex
	shards    map[uint64]*Shard
	resident  map[stats.Tier]map[uint64]bool
	accel     bool
	compactor *Compactor
}

func NewManager(accelPresent bool) *Manager {
	return &Manager{
		shards: make(map[uint64]*Shard),
		resident: map[stats.Tier]map[uint64]bool{
			stats.TierCPU:   make(map[uint64]bool),
			stats.TierAccel: make(map[uint64]bool),
		},
		accel:     accelPresent,
		compactor: NewCompactor(2),
	}
}

func (m *Manager) AccelPresent() bool { return m.accel }

func (m *Manager) Compactor() *Compactor { return m.compactor }

func (m *Manager) CreateShard(id uint64, schema *catalog.Schema) (*Shard, error) {
	m.Lock()
	defer m.Unlock()
	if m.shards[id] != nil {
		return nil, ErrDuplicateShard
	}
	s := NewShard(id, schema)
	m.shards[id] = s
	return s, nil
}

func (m *Manager) GetShard(id uint64) *Shard {
	m.RLock()
	defer m.RUnlock()
	return m.shards[id]
}

func (m *Manager) MarkResident(shardID uint64, tier stats.Tier) {
	m.Lock()
	defer m.Unlock()
	set := m.resident[tier]
	if set == nil {
		panic("not expected")
	}
	set[shardID] = true
}

func (m *Manager) ResidentCount(tier stats.Tier) int {
	m.RLock()
	defer m.RUnlock()
	return len(m.resident[tier])
}

// ClearMemory drops every cached chunk at the given tier.
func (m *Manager) ClearMemory(tier stats.Tier) {
	if tier == stats.TierDurable {
		panic("not expected")
	}
	m.Lock()
	m.resident[tier] = make(map[uint64]bool)
	m.Unlock()
	logrus.Infof("Cleared %s data cache", tier)
}

// VacuumDeletedRows physically removes tombstoned rows from every shard of
// the table. The physical rewrite is irreversible; the caller anchors a
// version token beforehand for logical rollback.
func (m *Manager) VacuumDeletedRows(td *catalog.TableEntry) error {
	total := uint64(0)
	for _, se := range td.Shards() {
		shard := m.GetShard(se.GetID())
		if shard == nil {
			panic("not expected")
		}
		for _, p := range shard.Partitions() {
			purged, err := p.PurgeDeletes()
			if err != nil {
				return err
			}
			total += purged
		}
	}
	logrus.Infof("Vacuumed %d deleted rows from table %d", total, td.GetID())
	return nil
}

func (m *Manager) Close() {
	m.compactor.Close()
}
