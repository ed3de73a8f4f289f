package exec

import (
	"errors"
	"fmt"
	"sync"

	"cae/pkg/data"
	"cae/pkg/stats"

	"github.com/sirupsen/logrus"
)

var (
	ErrArenaExhausted   = errors.New("cae: result arena exhausted")
	ErrMalformedColumn  = errors.New("cae: malformed column data")
	ErrUnsupportedProbe = errors.New("cae: unsupported probe target")
)

// DefaultArenaCapacity bounds the scratch memory of one maintenance pass.
const DefaultArenaCapacity = 1 << 28

// PartitionVisitor receives one aggregate row per partition. A nil row with
// a nil err signals an empty partition that was never probed. A non-nil err
// carries a per-partition probe failure; returning a non-nil error from the
// visitor aborts the whole pass.
type PartitionVisitor func(p *data.Partition, row []interface{}, err error) error

// Executor runs per-partition aggregate probes over shard data. ExecMu
// serializes whole maintenance passes the way the session lock serializes
// queries; per-column recomputes attach without it and rely on the caller
// for ordering.
type Executor struct {
	execMu    sync.Mutex
	dataMgr   *data.Manager
	metaMu    sync.RWMutex
	metaCache map[uint64]*data.Layout
}

func NewExecutor(dataMgr *data.Manager) *Executor {
	if dataMgr == nil {
		panic("not expected")
	}
	return &Executor{
		dataMgr:   dataMgr,
		metaCache: make(map[uint64]*data.Layout),
	}
}

// ExecCtx is one execution session. Acquired contexts hold the executor
// mutex until released; attached contexts do not.
type ExecCtx struct {
	e      *Executor
	arena  *Arena
	locked bool
}

// Acquire locks the executor and hands back a session with a fresh arena.
func (e *Executor) Acquire() *ExecCtx {
	e.execMu.Lock()
	return &ExecCtx{
		e:      e,
		arena:  NewArena(DefaultArenaCapacity),
		locked: true,
	}
}

// Attach creates a session without taking the executor mutex. The caller
// guarantees no concurrent pass is running.
func (e *Executor) Attach() *ExecCtx {
	return &ExecCtx{
		e:     e,
		arena: NewArena(DefaultArenaCapacity),
	}
}

func (ctx *ExecCtx) Release() {
	if ctx.locked {
		ctx.locked = false
		ctx.e.execMu.Unlock()
	}
}

// ResetArena swaps in a fresh arena. Called once per shard so scratch
// memory never accumulates across shards.
func (ctx *ExecCtx) ResetArena() {
	ctx.arena = NewArena(DefaultArenaCapacity)
}

func (ctx *ExecCtx) Arena() *Arena { return ctx.arena }

func (e *Executor) DataManager() *data.Manager { return e.dataMgr }

// getTableInfo returns the shard's partition layout, cached across probes
// of the same pass.
func (e *Executor) getTableInfo(shard *data.Shard) *data.Layout {
	e.metaMu.RLock()
	layout := e.metaCache[shard.ID()]
	e.metaMu.RUnlock()
	if layout != nil {
		return layout
	}
	layout = shard.GetLayout()
	e.metaMu.Lock()
	e.metaCache[shard.ID()] = layout
	e.metaMu.Unlock()
	return layout
}

// ClearMetaInfoCache drops the cached layouts so the next probe observes
// freshly checkpointed metadata.
func (e *Executor) ClearMetaInfoCache() {
	e.metaMu.Lock()
	e.metaCache = make(map[uint64]*data.Layout)
	e.metaMu.Unlock()
}

// ExecutePerPartition runs the aggregate unit against every partition of
// the shard, invoking the visitor once per partition in ascending id order.
// Partitions with no physical rows are signalled to the visitor without
// being probed. A probe failure on one partition is surfaced through the
// visitor's err argument and does not stop the remaining partitions; only
// a visitor error aborts the pass.
func (e *Executor) ExecutePerPartition(ctx *ExecCtx, unit *AggUnit, shard *data.Shard,
	co CompilationOptions, eo ExecutionOptions, visitor PartitionVisitor, parts map[uint64]bool) error {
	if ctx == nil || ctx.e != e {
		panic("not expected")
	}
	if co.Device == DeviceAccel && !e.dataMgr.AccelPresent() {
		logrus.Warnf("No accelerator present, probing shard %d on CPU", shard.ID())
		co.Device = DeviceCPU
	}
	layout := e.getTableInfo(shard)
	for _, pid := range layout.Partitions {
		if parts != nil && !parts[pid] {
			continue
		}
		p := shard.GetPartition(pid)
		if p == nil {
			panic("not expected")
		}
		if p.PhysicalRows() == 0 {
			if err := visitor(p, nil, nil); err != nil {
				return err
			}
			continue
		}
		row, cerr := computeAggRow(shard, p, unit)
		if cerr == nil {
			cerr = ctx.arena.Allocate(uint64(len(row)) * 16)
		}
		if cerr != nil {
			row = nil
		}
		if err := visitor(p, row, cerr); err != nil {
			return err
		}
	}
	e.dataMgr.MarkResident(shard.ID(), tierFor(co.Device))
	return nil
}

func tierFor(device DeviceType) stats.Tier {
	switch device {
	case DeviceCPU:
		return stats.TierCPU
	case DeviceAccel:
		return stats.TierAccel
	}
	panic("not expected")
}

func (e *Executor) String() string {
	e.metaMu.RLock()
	defer e.metaMu.RUnlock()
	return fmt.Sprintf("EXECUTOR[cachedlayouts=%d]", len(e.metaCache))
}
