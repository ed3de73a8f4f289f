package data

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	queue "github.com/yireyun/go-queue"
)

// Compactor runs shard file compaction in the background. Jobs flow through
// a lock-free pending queue into a bounded goroutine pool so a vacuum call
// returns without waiting for the rewrite.
type Compactor struct {
	pool    *ants.Pool
	pending *queue.EsQueue
	wg      sync.WaitGroup
}

func NewCompactor(workers int) *Compactor {
	pool, err := ants.NewPool(workers)
	if err != nil {
		panic(err)
	}
	return &Compactor{
		pool:    pool,
		pending: queue.NewQueue(1024),
	}
}

func (c *Compactor) Enqueue(shard *Shard) {
	ok, _ := c.pending.Put(shard)
	if !ok {
		logrus.Warnf("Compaction queue full, compacting shard %d inline", shard.ID())
		shard.CompactDataFiles()
		return
	}
	c.wg.Add(1)
	if err := c.pool.Submit(c.runOne); err != nil {
		logrus.Errorf("Submitting compaction, running inline: %v", err)
		c.runOne()
	}
}

func (c *Compactor) runOne() {
	defer c.wg.Done()
	val, ok, _ := c.pending.Get()
	if !ok {
		return
	}
	val.(*Shard).CompactDataFiles()
}

// Wait blocks until every enqueued compaction has run.
func (c *Compactor) Wait() {
	c.wg.Wait()
}

func (c *Compactor) Close() {
	c.wg.Wait()
	c.pool.Release()
}
