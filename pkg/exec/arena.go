package exec

import "fmt"

// Arena is the scratch allocator backing one maintenance pass. Each shard
// gets a fresh arena so per-shard probes cannot accumulate into an
// unbounded resident set.
type Arena struct {
	capacity uint64
	used     uint64
}

func NewArena(capacity uint64) *Arena {
	if capacity == 0 {
		panic("not expected")
	}
	return &Arena{capacity: capacity}
}

func (a *Arena) Allocate(n uint64) error {
	if a.used+n > a.capacity {
		return ErrArenaExhausted
	}
	a.used += n
	return nil
}

func (a *Arena) Used() uint64 { return a.used }

func (a *Arena) Capacity() uint64 { return a.capacity }

func (a *Arena) Reset() { a.used = 0 }

func (a *Arena) String() string {
	return fmt.Sprintf("ARENA[%d/%d]", a.used, a.capacity)
}
