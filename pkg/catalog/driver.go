package catalog

import (
	"sync"

	"github.com/jiangxinmeng1/logstore/pkg/entry"
	"github.com/jiangxinmeng1/logstore/pkg/store"
)

const (
	ETCheckpoint = entry.ETCustomizedStart + 1
)

// LogDriver appends checkpoint entries to a durable log.
type LogDriver interface {
	AppendEntry(entry.Entry) (uint64, error)
	Close() error
}

type logDriver struct {
	sync.Mutex
	impl store.Store
	seq  uint64
	own  bool
}

func NewLogDriver(dir, name string, cfg *store.StoreCfg) LogDriver {
	impl, err := store.NewBaseStore(dir, name, cfg)
	if err != nil {
		panic(err)
	}
	return NewLogDriverWithStore(impl, true)
}

func NewLogDriverWithStore(impl store.Store, own bool) LogDriver {
	driver := new(logDriver)
	driver.impl = impl
	driver.own = own
	return driver
}

func (d *logDriver) AppendEntry(e entry.Entry) (uint64, error) {
	d.Lock()
	id := d.seq
	info := &entry.Info{
		Group:    entry.GTCustomizedStart,
		CommitId: id,
	}
	e.SetInfo(info)
	d.seq++
	_, err := d.impl.AppendEntry(entry.GTCustomizedStart, e)
	d.Unlock()
	return id, err
}

func (d *logDriver) Close() error {
	if d.own {
		return d.impl.Close()
	}
	return nil
}
