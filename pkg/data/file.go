package data

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ShardFile stands in for a shard's on-disk data files. Compaction rewrites
// the file down to its live payload; the engine only tracks the accounting
// here, the encoding itself is out of scope.
type ShardFile struct {
	sync.Mutex
	name        string
	size        uint64
	compactions uint32
}

func NewShardFile(name string) *ShardFile {
	return &ShardFile{name: name}
}

func (f *ShardFile) Name() string { return f.name }

func (f *ShardFile) Size() uint64 {
	f.Lock()
	defer f.Unlock()
	return f.size
}

func (f *ShardFile) SetSize(size uint64) {
	f.Lock()
	f.size = size
	f.Unlock()
}

func (f *ShardFile) Compactions() uint32 {
	f.Lock()
	defer f.Unlock()
	return f.compactions
}

func (f *ShardFile) Compact(liveBytes uint64) {
	f.Lock()
	reclaimed := uint64(0)
	if f.size > liveBytes {
		reclaimed = f.size - liveBytes
	}
	f.size = liveBytes
	f.compactions++
	f.Unlock()
	logrus.Infof("Compacted %s, reclaimed %d bytes", f.name, reclaimed)
}

func (f *ShardFile) String() string {
	f.Lock()
	defer f.Unlock()
	return fmt.Sprintf("FILE[name=%s,size=%d,compactions=%d]", f.name, f.size, f.compactions)
}
